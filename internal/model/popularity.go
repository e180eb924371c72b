package model

// Popularity is followers + stars with nil counted as zero.
func Popularity(followers, stars *int) int {
	var f, s int
	if followers != nil {
		f = *followers
	}
	if stars != nil {
		s = *stars
	}
	return ComputePopularity(f, s)
}

func ComputePopularity(followers, stars int) int {
	return followers + stars
}
