package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/bassista/jobsync/internal/apierror"
	"github.com/bassista/jobsync/internal/fetcher"
	"github.com/bassista/jobsync/internal/model"
)

func newTable(w io.Writer, headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, cols ...any) {
	parts := make([]string, len(cols))
	for i, col := range cols {
		s := fmt.Sprint(col)
		if s == "" {
			s = "-"
		}
		parts[i] = s
	}
	fmt.Fprintln(tw, strings.Join(parts, "\t"))
}

func date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// stateErr turns a failed fetch into the error shown to the user.
func stateErr[T model.Entity](s fetcher.State[T]) error {
	if s.Status != fetcher.StatusError {
		return nil
	}
	if s.Err == nil {
		return fmt.Errorf("%s", s.Message)
	}
	return userError(s.Err)
}

// userError keeps only the message meant for the user.
func userError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s", apierror.Message(err, apierror.FallbackMessage))
}

func printJobs(w io.Writer, jobs []model.Job) {
	if len(jobs) == 0 {
		fmt.Fprintln(w, "No jobs found.")
		return
	}
	tw := newTable(w, "ID", "TITLE", "COMPANY", "LOCATION", "TYPE", "POSTED")
	for _, j := range jobs {
		row(tw, j.ID, j.Title, j.Company.Name, j.Location, j.JobType, date(j.CreatedAt))
	}
	tw.Flush()
}
