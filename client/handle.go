package client

// ClientDataHandle is a 64-bit identifier the dispatcher allocates for
// every submitted invocation. It is carried verbatim in the request's
// client-data field, echoed by the server in the response, and used to
// route that response back to the submitting callback. Unique for the
// lifetime of a Client.
type ClientDataHandle uint64
