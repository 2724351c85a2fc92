package renamed

//tether:import
func current() {}
