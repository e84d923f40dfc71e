// Package tracker wires the job and recruiter lists to the tab querier and user prompts.
// It holds the rules callers follow before adding records: validation, defaults and confirmation.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/yura4350/jobtrack/app/prompt"
	"github.com/yura4350/jobtrack/app/store"
	"github.com/yura4350/jobtrack/app/tab"
)

// questions shown to the user
const (
	ClearJobsQuestion       = "Are you sure you want to delete all saved job postings?"
	ClearRecruitersQuestion = "Are you sure you want to delete all saved recruiters?"
	RecruiterNameQuestion   = "Enter recruiter name:"
	CompanyQuestion         = "Enter company name (optional):"
)

// ErrCancelled is returned when the user dismissed a prompt
var ErrCancelled = errors.New("cancelled")

// Tracker owns the two lists
type Tracker struct {
	slots      store.Slots
	jobs       *store.List[store.Job]
	recruiters *store.List[store.Recruiter]
	tabs       tab.Querier
	now        func() time.Time
	dateLayout string
}

// Params for New. Tabs may be nil, "save current tab" then returns tab.ErrNoActiveTab.
type Params struct {
	Slots      store.Slots
	Tabs       tab.Querier
	DateLayout string
	Now        func() time.Time
}

// New makes a tracker on the slots. Call Load before use.
func New(p Params) *Tracker {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		slots:      p.Slots,
		jobs:       store.New[store.Job](p.Slots, store.JobsKey),
		recruiters: store.New[store.Recruiter](p.Slots, store.RecruitersKey),
		tabs:       p.Tabs,
		now:        now,
		dateLayout: p.DateLayout,
	}
}

// Load reads both lists from storage
func (t *Tracker) Load(ctx context.Context) error {
	if err := t.jobs.Load(ctx); err != nil {
		return err
	}
	if err := t.recruiters.Load(ctx); err != nil {
		return err
	}
	log.Printf("[INFO] loaded %d jobs and %d recruiters", t.jobs.Len(), t.recruiters.Len())
	return nil
}

// Jobs returns saved jobs, newest first
func (t *Tracker) Jobs() []store.Job { return t.jobs.Items() }

// Recruiters returns saved recruiters, newest first
func (t *Tracker) Recruiters() []store.Recruiter { return t.recruiters.Items() }

// Warnings describes lists whose stored data could not be read on load
func (t *Tracker) Warnings() []string {
	res := []string{}
	if t.jobs.Corrupted() {
		res = append(res, corruptWarning("job postings", t.jobs.Key()))
	}
	if t.recruiters.Corrupted() {
		res = append(res, corruptWarning("recruiters", t.recruiters.Key()))
	}
	return res
}

// keyLister is implemented by slots able to enumerate their keys
type keyLister interface {
	Keys(ctx context.Context) ([]string, error)
}

// Backups lists slot keys holding data set aside as unreadable, including ones left by earlier runs.
// Slots without key listing report none.
func (t *Tracker) Backups(ctx context.Context) ([]string, error) {
	res := []string{}
	kl, ok := t.slots.(keyLister)
	if !ok {
		return res, nil
	}
	keys, err := kl.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	for _, k := range keys {
		if strings.HasSuffix(k, store.CorruptSuffix) {
			res = append(res, k)
		}
	}
	sort.Strings(res)
	return res, nil
}

func corruptWarning(what, key string) string {
	return fmt.Sprintf("Saved %s could not be read and were set aside as %q.", what, key+store.CorruptSuffix)
}

func (t *Tracker) stamp() store.Stamp {
	return store.Stamp{Now: t.now(), DateLayout: t.dateLayout}
}

// SaveJob validates and stores a job
func (t *Tracker) SaveJob(ctx context.Context, title, url string) (store.Job, error) {
	job, err := store.NewJob(title, url, t.stamp())
	if err != nil {
		return store.Job{}, err
	}
	if err := t.jobs.Add(ctx, job); err != nil {
		return store.Job{}, err
	}
	log.Printf("[INFO] saved job %q %s", job.Title, job.URL)
	return job, nil
}

// SaveJobFromTab stores the active tab as a job. q overrides the tracker's querier if not nil.
func (t *Tracker) SaveJobFromTab(ctx context.Context, q tab.Querier) (store.Job, error) {
	current, err := t.activeTab(ctx, q)
	if err != nil {
		return store.Job{}, err
	}
	return t.SaveJob(ctx, current.Title, current.URL)
}

// SaveRecruiter validates and stores a recruiter
func (t *Tracker) SaveRecruiter(ctx context.Context, name, company, url string) (store.Recruiter, error) {
	rec, err := store.NewRecruiter(name, company, url, t.stamp())
	if err != nil {
		return store.Recruiter{}, err
	}
	if err := t.recruiters.Add(ctx, rec); err != nil {
		return store.Recruiter{}, err
	}
	log.Printf("[INFO] saved recruiter %q (%s) %s", rec.Name, rec.Company, rec.URL)
	return rec, nil
}

// SaveRecruiterFromTab asks for the name and company and stores the active tab's URL.
// q overrides the tracker's querier if not nil.
// A cancelled or empty name leaves the list unchanged and returns ErrCancelled.
func (t *Tracker) SaveRecruiterFromTab(ctx context.Context, q tab.Querier, p prompt.Prompter) (store.Recruiter, error) {
	current, err := t.activeTab(ctx, q)
	if err != nil {
		return store.Recruiter{}, err
	}
	if p == nil {
		return store.Recruiter{}, ErrCancelled
	}
	name, ok := p.Ask(RecruiterNameQuestion)
	if !ok || name == "" {
		return store.Recruiter{}, ErrCancelled
	}
	company, _ := p.Ask(CompanyQuestion)
	return t.SaveRecruiter(ctx, name, company, current.URL)
}

// ClearJobs deletes all jobs after confirmation, returns true if cleared
func (t *Tracker) ClearJobs(ctx context.Context, c prompt.Confirmer) (bool, error) {
	return t.jobs.Clear(ctx, c, ClearJobsQuestion)
}

// ClearRecruiters deletes all recruiters after confirmation, returns true if cleared
func (t *Tracker) ClearRecruiters(ctx context.Context, c prompt.Confirmer) (bool, error) {
	return t.recruiters.Clear(ctx, c, ClearRecruitersQuestion)
}

func (t *Tracker) activeTab(ctx context.Context, q tab.Querier) (tab.Tab, error) {
	if q == nil {
		q = t.tabs
	}
	if q == nil {
		return tab.Tab{}, tab.ErrNoActiveTab
	}
	current, err := q.Active(ctx)
	if err != nil {
		return tab.Tab{}, err
	}
	return current, nil
}
