package draft

// Dispenser supplies batches of card descriptors to the engine.
//
// Dispense returns up to qty cards; DispenseAll returns the dispenser's
// current batch. A dispenser that is consumed returns an empty slice.
type Dispenser[C comparable] interface {
	Dispense(qty int) []C
	DispenseAll() []C
}
