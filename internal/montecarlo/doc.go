// Package montecarlo implements the packet-transport kernel for a
// spherically symmetric, homologously expanding supernova atmosphere.
//
// Energy packets are propagated through a stratified shell model,
// interacting with free electrons (Thomson scattering) and with a
// sorted line list under the Sobolev approximation. Line absorption
// can resonance-scatter, downbranch, or activate a table-driven macro
// atom depending on the snapshot's interaction mode. The kernel
// accumulates per-shell radiation-field estimators (J and nu-bar) and
// reports each packet's emergent frequency and energy, with a negative
// sign marking reabsorption through the inner boundary.
//
// The plasma and atomic state is supplied as an immutable Snapshot;
// computing that state (ionization, level populations, Sobolev optical
// depths) is the concern of an outer iteration driver, not of this
// package.
package montecarlo
