package stale

//tether:import
func current() {}
