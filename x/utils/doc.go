/*
Package utils contains decorators shared by all extensions: panic recovery,
call logging, call metrics and savepoints isolating the state changes of a
failed call.
*/
package utils
