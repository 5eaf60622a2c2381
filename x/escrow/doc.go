/*
Package escrow implements multi-asset conditional offers.

A creator locks the assets attached to CreateOfferMsg in the escrow custody
account. The offer names a recipient, the assets expected in return, an
expiration time and optionally a list of oracle conditions. The recipient
accepts the offer by paying exactly the expected assets before the offer
expires and while every condition holds. The creator can cancel an active
offer, and active offers past their expiration are swept by
CleanupExpiredMsg or the block ticker.

A platform fee is computed once, when the offer is created, as the sum over
all offered amounts of floor(amount * fee / 100). The same aggregated fee is
subtracted from every offered asset line paid out on cancellation, expiration
or acceptance, and the deducted part stays in custody.

Offer lifecycle

  Active -> Completed  (AcceptOfferMsg)
  Active -> Cancelled  (CancelOfferMsg)
  Active -> Expired    (CleanupExpiredMsg, Ticker)

All three final states are terminal. Offers are never deleted.
*/
package escrow
