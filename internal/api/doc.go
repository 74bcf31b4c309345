// Package api exposes the coaching service over HTTP. It decodes and
// validates requests, maps service errors to status codes and messages
// that leak no internals, and streams the reconciled progress view over a
// websocket.
package api
