// Package lib provides a Go SDK for submitting and tracking DSR platform jobs.
//
// The DSR platform runs long jobs (proposal generation, document imports)
// asynchronously: a submission returns a job ID immediately and the job is
// then polled for progress until it finishes. This package handles that
// lifecycle end to end: submission, progress polling with stale-response
// protection, cancellation, retries, and persistence of the tracked state so
// tracking survives process restarts.
//
// # Quick Start
//
// Create a client, submit a job, and watch it to completion:
//
//	client, err := lib.New(ctx, lib.Config{
//	    APIURL:   "https://api.dsr.example.com",
//	    APIToken: os.Getenv("DSR_TOKEN"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	job, err := client.SubmitJob(ctx, lib.SubmitJobOpts{
//	    Project: "prj-42",
//	    Kind:    lib.JobKindProposal,
//	    Params:  json.RawMessage(`{"tone":"formal"}`),
//	})
//
//	final, err := client.WatchJob(ctx, job.ID, &lib.WatchJobOpts{
//	    OnProgress: func(progress int, step string) {
//	        fmt.Printf("%3d%% %s\n", progress, step)
//	    },
//	})
//
// # One Active Job Per Project
//
// A project tracks at most one active job at a time. Submitting a new job
// while another one is still active supersedes the old one: its tracking is
// cancelled locally and no further callbacks fire for it, even if a status
// response was already in flight. The server-side job itself is never
// touched.
//
// # Resuming After a Restart
//
// All observed progress is persisted in a SQLite database, so an interrupted
// watch can be picked up again:
//
//	jobs, _ := client.ResumeJobs(ctx)
//	for _, j := range jobs {
//	    go client.WatchJob(ctx, j.ID, nil)
//	}
//
// # Error Handling
//
// All methods return errors that can be inspected with [errors.Is]:
//
//   - [ErrNotFound]: Job or project does not exist.
//   - [ErrAlreadyExists]: A conflicting job already exists.
//   - [ErrNotValid]: Invalid input or operation (e.g. retrying a running job).
//
// # Testing
//
// Use a temporary database path and an httptest server as the API to write
// tests without real infrastructure:
//
//	client, _ := lib.New(ctx, lib.Config{
//	    APIURL: testServer.URL,
//	    DBPath: filepath.Join(t.TempDir(), "test.db"),
//	})
//	defer client.Close()
//
// # Thread Safety
//
// A [Client] is safe for concurrent use from multiple goroutines. The
// underlying storage uses SQLite with WAL mode.
package lib
