// Package tr069 defines the parsed CWMP (TR-069) message vocabulary exchanged
// between the ACS state machines and the device transport.
//
// Wire encoding (SOAP/XML) is the transport's concern. This package only holds
// the decoded message values, plus a small JSON envelope used by the HTTP
// message bridge:
//
//	env, _ := tr069.Encode(&tr069.InformResponse{MaxEnvelopes: 1})
//	msg, _ := tr069.Decode(env)
//
// A non-zero Status on any *Response is treated by the state machines exactly
// like a Fault.
package tr069
