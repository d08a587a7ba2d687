package registry

// Authorize checks that caller owns item. An item without an owner, which is
// what closing an auction nobody bid on leaves behind, authorizes nobody.
func Authorize(caller Identity, item *Item) error {
	if caller.IsZero() || item.Owner.IsZero() {
		return ErrAccessRejected
	}
	if caller != item.Owner {
		return ErrAccessRejected
	}
	return nil
}
