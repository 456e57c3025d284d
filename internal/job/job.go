// Package job holds the mutable state of one conversion run.
//
// Every counter the pipeline needs (management-id sequence, project-id
// generator, site to project-id memo) lives on a Job. A new Job is created
// per conversion, so concurrent conversions never share counters.
package job

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Job is the per-conversion context. It is not safe for concurrent use;
// one goroutine owns a Job for its whole lifetime.
type Job struct {
	// ID correlates log lines of one conversion.
	ID string

	now          time.Time
	management   *Sequence
	projectSeq   int
	siteProjects map[string]string
}

// New starts a job whose dates are stamped from now.
func New(now time.Time) *Job {
	return &Job{
		ID:           uuid.NewString(),
		now:          now,
		management:   newSequence(now),
		siteProjects: make(map[string]string),
	}
}

// Now returns the job clock. All "today" and "current year" fallbacks read
// from here so a job is reproducible.
func (j *Job) Now() time.Time { return j.now }

// NextManagementID returns the next 請求管理ID, e.g. 20251104001.
func (j *Job) NextManagementID() string {
	return j.management.Next()
}

// NewSequence returns a fresh management-id sequence starting at 1.
// Consolidation renumbers its output rows with one of these.
func (j *Job) NewSequence() *Sequence {
	return newSequence(j.now)
}

// ProjectIDForSite returns the project id for a vendor site, generating
// PRJ-YYYYMMDD-NNN on first use. The same site always gets the same id
// within one job.
func (j *Job) ProjectIDForSite(vendor, site string) (id string, generated bool) {
	key := vendor + "__" + site
	if id, ok := j.siteProjects[key]; ok {
		return id, false
	}
	j.projectSeq++
	id = fmt.Sprintf("PRJ-%s-%03d", j.now.Format("20060102"), j.projectSeq)
	j.siteProjects[key] = id
	return id, true
}

// Sequence produces date-stamped, zero-padded daily ids.
type Sequence struct {
	prefix string
	n      int
}

func newSequence(now time.Time) *Sequence {
	return &Sequence{prefix: now.Format("20060102")}
}

// Next returns the next id in the sequence.
func (s *Sequence) Next() string {
	s.n++
	return fmt.Sprintf("%s%03d", s.prefix, s.n)
}
