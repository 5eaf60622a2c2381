/*
Package cash keeps the balances of all ledger accounts.

Every account, including the custody accounts of the extensions, owns a
wallet holding a normalized set of coins. All asset movements of the ledger
go through the Controller, which fails atomically with ErrInsufficientAmount
when the source wallet does not hold enough funds.

The CustodyDecorator moves the payment attached to a message from the
caller's wallet into the custody account of the extension handling the
message, before the handler runs.
*/
package cash
