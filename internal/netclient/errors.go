package netclient

import "errors"

// ErrInvalidProxyAddress is returned when the proxy address is not in "host:port" form.
var ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
