/*
Package errors implements the error registry used by the ledger.

Each failure returned to a caller wraps one of the root errors declared in
this package. Root errors carry a numeric code that allows the client to
distinguish the kind of failure: validation, authorization, state, timing,
condition or arithmetic problems.

If you want to register a custom error use Register(code, description).
For reusing errors use ErrXyz.New and ErrXyz.Newf.

A stacktrace is attached the first time an error is wrapped. Print it with
%+v on the value returned by StackTrace.
*/
package errors
