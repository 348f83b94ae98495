package common

// RPCRequest is the body POSTed to the rpc endpoint.
type RPCRequest struct {
	Method string    `json:"method"`
	Params [2]string `json:"params"`
}

// RPCResponse is what comes back. Exactly one of Result and Error is expected
// to be set, but nothing on the wire enforces that, so HandleRequest checks it.
type RPCResponse[T any] struct {
	Result *T                `json:"result"`
	Error  *RPCResponseError `json:"error"`
}

type RPCResponseError struct {
	Message string `json:"message"`
}
