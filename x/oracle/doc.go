/*
Package oracle stores values attested by oracle accounts and verifies
conditions against them.

An oracle account publishes a value under a data key using PublishMsg. Other
extensions read it back synchronously through a Reader, and the Verifier
compares the attested bytes with an expected value. A missing attestation, a
failed read and a value mismatch are all reported as ErrCondition; no read is
ever retried.
*/
package oracle
