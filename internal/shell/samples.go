package shell

// SampleQueries are suggested starting points shown by :samples.
var SampleQueries = []string{
	"Give me analysis of Wakad",
	"Compare Ambegaon Budruk and Aundh demand trends",
	"Show price growth for Akurdi over the last 3 years",
	"Analyze real estate trends in Pune",
	"Show me data for all locations in 2023",
}

// Sample returns the n-th sample query, counting from 1.
func Sample(n int) (string, bool) {
	if n < 1 || n > len(SampleQueries) {
		return "", false
	}
	return SampleQueries[n-1], true
}
