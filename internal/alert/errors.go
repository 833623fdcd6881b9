package alert

// FetchError the price feed was unreachable or returned unusable data
type FetchError struct{ Err error }

func (e *FetchError) Error() string { return "fetch price: " + e.Err.Error() }
func (e *FetchError) Unwrap() error { return e.Err }

// SendError the notification transport failed
type SendError struct{ Err error }

func (e *SendError) Error() string { return "send notification: " + e.Err.Error() }
func (e *SendError) Unwrap() error { return e.Err }

// WriteError the alert log append failed
type WriteError struct{ Err error }

func (e *WriteError) Error() string { return "write alert log: " + e.Err.Error() }
func (e *WriteError) Unwrap() error { return e.Err }
