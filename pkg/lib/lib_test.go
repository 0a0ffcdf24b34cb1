package lib_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsr-inc/jobtrack/pkg/lib"
)

// fakeAPI simulates the DSR job API. Submissions return sequential remote
// IDs; status checks pop queued responses per job, repeating the last one.
type fakeAPI struct {
	mu        sync.Mutex
	submitted int
	statuses  map[string][]string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{statuses: map[string][]string{}}
}

// queueStatus appends raw JSON status bodies for a remote job ID.
func (f *fakeAPI) queueStatus(remoteID string, bodies ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[remoteID] = append(f.statuses[remoteID], bodies...)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && strings.Contains(r.URL.Path, "/projects/"):
		f.submitted++
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"job_id":"remote-%d"}`, f.submitted)

	case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/jobs/"):
		remoteID := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		queue := f.statuses[remoteID]
		if len(queue) == 0 {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":"job not found"}`)
			return
		}
		body := queue[0]
		if len(queue) > 1 {
			f.statuses[remoteID] = queue[1:]
		}
		fmt.Fprint(w, body)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, api *fakeAPI) *lib.Client {
	t.Helper()

	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	client, err := lib.New(context.Background(), lib.Config{
		APIURL:       server.URL,
		DBPath:       filepath.Join(t.TempDir(), "test.db"),
		PollInterval: 2 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestNewInvalidConfig(t *testing.T) {
	_, err := lib.New(context.Background(), lib.Config{})
	require.Error(t, err)
}

func TestClientSubmitAndWatch(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	api := newFakeAPI()
	api.queueStatus("remote-1",
		`{"status":"running","progress":30,"current_step":"Analyzing documents"}`,
		`{"status":"running","progress":80,"current_step":"Drafting sections"}`,
		`{"status":"completed","progress":100,"result":{"proposal_id":"abc"}}`,
	)
	client := newTestClient(t, api)

	job, err := client.SubmitJob(ctx, lib.SubmitJobOpts{
		Project: "prj-1",
		Kind:    lib.JobKindProposal,
		Params:  json.RawMessage(`{"tone":"formal"}`),
	})
	require.NoError(err)
	assert.Equal(lib.JobStatusPending, job.Status)
	assert.Equal("remote-1", job.RemoteID)

	var progress []int
	final, err := client.WatchJob(ctx, job.ID, &lib.WatchJobOpts{
		OnProgress: func(p int, _ string) { progress = append(progress, p) },
	})
	require.NoError(err)

	assert.Equal(lib.JobStatusCompleted, final.Status)
	assert.Equal(100, final.Progress)
	assert.JSONEq(`{"proposal_id":"abc"}`, string(final.Result))
	assert.Equal([]int{30, 80}, progress)

	// The terminal state is persisted.
	got, err := client.GetJob(ctx, job.ID)
	require.NoError(err)
	assert.Equal(lib.JobStatusCompleted, got.Status)
}

func TestClientWatchFailedJob(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	api := newFakeAPI()
	api.queueStatus("remote-1", `{"status":"failed","error":"import timed out"}`)
	client := newTestClient(t, api)

	job, err := client.SubmitJob(ctx, lib.SubmitJobOpts{Project: "prj-1", Kind: lib.JobKindImport})
	require.NoError(err)

	final, err := client.WatchJob(ctx, job.ID, nil)
	require.NoError(err)
	assert.Equal(lib.JobStatusFailed, final.Status)
	assert.Equal("import timed out", final.Error)
}

func TestClientSubmitSupersedesActiveJob(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	api := newFakeAPI()
	client := newTestClient(t, api)

	first, err := client.SubmitJob(ctx, lib.SubmitJobOpts{Project: "prj-1", Kind: lib.JobKindProposal})
	require.NoError(err)

	second, err := client.SubmitJob(ctx, lib.SubmitJobOpts{Project: "prj-1", Kind: lib.JobKindProposal})
	require.NoError(err)
	assert.NotEqual(first.ID, second.ID)

	// The first job tracking was cancelled by the second submission.
	got, err := client.GetJob(ctx, first.ID)
	require.NoError(err)
	assert.Equal(lib.JobStatusCancelled, got.Status)
}

func TestClientCancelJob(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	api := newFakeAPI()
	client := newTestClient(t, api)

	job, err := client.SubmitJob(ctx, lib.SubmitJobOpts{Project: "prj-1", Kind: lib.JobKindImport})
	require.NoError(err)

	cancelled, err := client.CancelJob(ctx, job.ID)
	require.NoError(err)
	assert.Equal(lib.JobStatusCancelled, cancelled.Status)

	// Cancel is idempotent.
	again, err := client.CancelJob(ctx, job.ID)
	require.NoError(err)
	assert.Equal(lib.JobStatusCancelled, again.Status)
}

func TestClientRetryJob(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	api := newFakeAPI()
	api.queueStatus("remote-1", `{"status":"failed","error":"boom"}`)
	client := newTestClient(t, api)

	job, err := client.SubmitJob(ctx, lib.SubmitJobOpts{
		Project: "prj-1",
		Kind:    lib.JobKindImport,
		Params:  json.RawMessage(`{"documents":12}`),
	})
	require.NoError(err)

	_, err = client.WatchJob(ctx, job.ID, nil)
	require.NoError(err)

	retried, err := client.RetryJob(ctx, job.ID)
	require.NoError(err)
	assert.NotEqual(job.ID, retried.ID)
	assert.Equal("remote-2", retried.RemoteID)
	assert.Equal(lib.JobKindImport, retried.Kind)
	assert.Equal(lib.JobStatusPending, retried.Status)
}

func TestClientRetryActiveJobFails(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	api := newFakeAPI()
	client := newTestClient(t, api)

	job, err := client.SubmitJob(ctx, lib.SubmitJobOpts{Project: "prj-1", Kind: lib.JobKindProposal})
	require.NoError(err)

	_, err = client.RetryJob(ctx, job.ID)
	require.ErrorIs(err, lib.ErrNotValid)
}

func TestClientGetJobNotFound(t *testing.T) {
	api := newFakeAPI()
	client := newTestClient(t, api)

	_, err := client.GetJob(context.Background(), "does-not-exist")
	require.ErrorIs(t, err, lib.ErrNotFound)
}

func TestClientListJobs(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	api := newFakeAPI()
	api.queueStatus("remote-1", `{"status":"failed","error":"boom"}`)
	client := newTestClient(t, api)

	j1, err := client.SubmitJob(ctx, lib.SubmitJobOpts{Project: "prj-1", Kind: lib.JobKindImport})
	require.NoError(err)
	_, err = client.WatchJob(ctx, j1.ID, nil)
	require.NoError(err)

	_, err = client.SubmitJob(ctx, lib.SubmitJobOpts{Project: "prj-2", Kind: lib.JobKindProposal})
	require.NoError(err)

	all, err := client.ListJobs(ctx, nil)
	require.NoError(err)
	assert.Len(all, 2)

	active, err := client.ListJobs(ctx, &lib.ListJobsOpts{Active: true})
	require.NoError(err)
	require.Len(active, 1)
	assert.Equal("prj-2", active[0].ProjectID)

	byProject, err := client.ListJobs(ctx, &lib.ListJobsOpts{Project: "prj-1"})
	require.NoError(err)
	require.Len(byProject, 1)
	assert.Equal(lib.JobStatusFailed, byProject[0].Status)
}

// Persisted tracking state survives the client being closed and reopened.
func TestClientResumeJobs(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	api := newFakeAPI()
	server := httptest.NewServer(api)
	defer server.Close()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	cfg := lib.Config{
		APIURL:       server.URL,
		DBPath:       dbPath,
		PollInterval: 2 * time.Millisecond,
	}

	client, err := lib.New(ctx, cfg)
	require.NoError(err)

	job, err := client.SubmitJob(ctx, lib.SubmitJobOpts{Project: "prj-1", Kind: lib.JobKindProposal})
	require.NoError(err)
	require.NoError(client.Close())

	// Restart: the in-flight job is still resumable.
	api.queueStatus("remote-1", `{"status":"running","progress":60,"current_step":"Rendering"}`)

	client, err = lib.New(ctx, cfg)
	require.NoError(err)
	defer client.Close()

	resumable, err := client.ResumeJobs(ctx)
	require.NoError(err)
	require.Len(resumable, 1)
	assert.Equal(job.ID, resumable[0].ID)
	assert.Equal(lib.JobStatusRunning, resumable[0].Status)
	assert.Equal(60, resumable[0].Progress)
}

// A job the server no longer knows about is marked failed on resume.
func TestClientResumeJobsRemoteGone(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	api := newFakeAPI()
	client := newTestClient(t, api)

	job, err := client.SubmitJob(ctx, lib.SubmitJobOpts{Project: "prj-1", Kind: lib.JobKindImport})
	require.NoError(err)

	// No queued statuses: the fake API answers 404.
	resumable, err := client.ResumeJobs(ctx)
	require.NoError(err)
	assert.Empty(resumable)

	got, err := client.GetJob(ctx, job.ID)
	require.NoError(err)
	assert.Equal(lib.JobStatusFailed, got.Status)
	assert.Equal("job no longer exists on the server", got.Error)
}
