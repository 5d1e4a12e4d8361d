package domain

// JobSummary is a job with candidate counts computed from its scans.
type JobSummary struct {
	Job
	Candidates  int `json:"candidates"`
	Shortlisted int `json:"shortlisted"`
}

// Aggregate counts scans per job. Counts are never stored on the job; they are
// recomputed from the scan rows on every read. Job order is preserved.
func Aggregate(jobs []Job, scans []Scan) []JobSummary {
	type counts struct {
		candidates  int
		shortlisted int
	}

	byJob := make(map[string]*counts, len(jobs))
	for _, job := range jobs {
		byJob[job.ID] = &counts{}
	}
	for _, scan := range scans {
		c, ok := byJob[scan.JobID]
		if !ok {
			continue
		}
		c.candidates++
		if scan.Status.IsShortlisted() {
			c.shortlisted++
		}
	}

	out := make([]JobSummary, 0, len(jobs))
	for _, job := range jobs {
		c := byJob[job.ID]
		out = append(out, JobSummary{
			Job:         job,
			Candidates:  c.candidates,
			Shortlisted: c.shortlisted,
		})
	}
	return out
}
