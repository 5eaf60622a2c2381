/*
Package gconf implements a configuration store intended to be used as a global,
in-database configuration.

Each extension keeps a single configuration record under its own package
name. A record is loaded from the "conf" section of the genesis file and can
later be changed only by its owner, either using the generic patch handler
provided here or a dedicated extension message.

Not being able to load a configuration is a critical condition for the
extension. Handlers must fail the call instead of falling back to built in
values.
*/
package gconf
