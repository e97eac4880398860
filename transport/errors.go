package transport

import "github.com/isamuradli/remotedram/kverr"

func shutdownErr() error {
	return kverr.New(kverr.Cancelled, "transport manager is shutting down")
}

func notInitializedErr() error {
	return kverr.New(kverr.FailedPrecondition, "transport manager used before initialization")
}
