/*
Package ledger defines the common interfaces that tie together the
subpackages of the ledger: handlers, decorators, messages, transactions,
stores and the execution context.

Every call is a Tx carrying a single Msg. The app package routes the message
to the Handler registered for its path, wrapped by Decorators that provide
authentication, custody of attached payments, logging and atomicity.

We pass context through context.Context between app, decorators and
handlers. There should exist two functions for every XYZ of type T that we
want to support in the context:

  WithXYZ(context.Context, T) context.Context
  GetXYZ(context.Context) (val T, ok bool)

WithXYZ may panic if the value was previously set to avoid lower-level
modules overwriting the value (eg. height, chain id).
*/
package ledger
