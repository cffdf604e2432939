package githubclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-github/v66/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dodouchiha/turni/pkg/store"
)

// fakeContents is an in-memory stand-in for the GitHub Contents API, enough
// of it to exercise get/create/update and the compare-and-swap behaviour.
type fakeContents struct {
	files    map[string][]byte
	shas     map[string]string
	nextSHA  int
	failWith int // when non-zero, every request fails with this status
	requests int
}

func newFakeContents() *fakeContents {
	return &fakeContents{
		files: make(map[string][]byte),
		shas:  make(map[string]string),
	}
}

func (f *fakeContents) bumpSHA(path string) string {
	f.nextSHA++
	sha := fmt.Sprintf("sha-%04d", f.nextSHA)
	f.shas[path] = sha
	return sha
}

func (f *fakeContents) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests++
		if f.failWith != 0 {
			w.WriteHeader(f.failWith)
			fmt.Fprint(w, `{"message":"induced failure"}`)
			return
		}

		path := strings.TrimPrefix(r.URL.Path, "/repos/dodouchiha/turni_3/contents/")

		switch r.Method {
		case http.MethodGet:
			content, ok := f.files[path]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"message":"Not Found"}`)
				return
			}
			resp := map[string]any{
				"type":     "file",
				"encoding": "base64",
				"name":     path,
				"path":     path,
				"sha":      f.shas[path],
				"content":  base64.StdEncoding.EncodeToString(content),
			}
			require.NoError(t, json.NewEncoder(w).Encode(resp))

		case http.MethodPut:
			var body struct {
				Message string `json:"message"`
				Content string `json:"content"`
				SHA     string `json:"sha"`
				Branch  string `json:"branch"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.NotEmpty(t, body.Message)

			_, exists := f.files[path]
			switch {
			case body.SHA == "" && exists:
				w.WriteHeader(http.StatusUnprocessableEntity)
				fmt.Fprint(w, `{"message":"path already exists"}`)
				return
			case body.SHA != "" && body.SHA != f.shas[path]:
				w.WriteHeader(http.StatusConflict)
				fmt.Fprint(w, `{"message":"is at a different sha"}`)
				return
			}

			decoded, err := base64.StdEncoding.DecodeString(body.Content)
			require.NoError(t, err)
			f.files[path] = decoded
			sha := f.bumpSHA(path)

			status := http.StatusOK
			if !exists {
				status = http.StatusCreated
			}
			w.WriteHeader(status)
			fmt.Fprintf(w, `{"content":{"sha":%q,"path":%q}}`, sha, path)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func newTestClient(t *testing.T, fake *fakeContents) (*Client, *httptest.Server) {
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)

	gh := github.NewClient(server.Client())
	base, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	gh.BaseURL = base

	return NewClientWithGitHub(gh, "dodouchiha", "turni_3", "main"), server
}

func TestGet_ReturnsPayloadAndToken(t *testing.T) {
	fake := newFakeContents()
	fake.files["medici.json"] = []byte(`["Rossi Mario"]`)
	fake.shas["medici.json"] = "sha-0001"

	client, _ := newTestClient(t, fake)

	data, token, err := client.Get(context.Background(), "medici.json")
	require.NoError(t, err)
	assert.JSONEq(t, `["Rossi Mario"]`, string(data))
	assert.Equal(t, "sha-0001", token)
}

func TestGet_MissingDocumentIsNotFound(t *testing.T) {
	client, _ := newTestClient(t, newFakeContents())

	_, _, err := client.Get(context.Background(), "medici.json")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGet_InvalidJSONIsCorrupt(t *testing.T) {
	fake := newFakeContents()
	fake.files["medici.json"] = []byte("{broken")
	fake.shas["medici.json"] = "sha-0001"

	client, _ := newTestClient(t, fake)

	_, _, err := client.Get(context.Background(), "medici.json")
	assert.ErrorIs(t, err, store.ErrCorrupt)
}

func TestPut_CreateThenUpdate(t *testing.T) {
	fake := newFakeContents()
	client, _ := newTestClient(t, fake)
	ctx := context.Background()

	// Create path: no token.
	token, err := client.Put(ctx, "medici.json", []byte(`["Verdi Anna"]`), "")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Update with the adopted token.
	token2, err := client.Put(ctx, "medici.json", []byte(`["Rossi Mario","Verdi Anna"]`), token)
	require.NoError(t, err)
	assert.NotEqual(t, token, token2)

	assert.JSONEq(t, `["Rossi Mario","Verdi Anna"]`, string(fake.files["medici.json"]))
}

func TestPut_StaleTokenConflicts(t *testing.T) {
	fake := newFakeContents()
	client, _ := newTestClient(t, fake)
	ctx := context.Background()

	stale, err := client.Put(ctx, "medici.json", []byte(`["A"]`), "")
	require.NoError(t, err)

	fresh, err := client.Put(ctx, "medici.json", []byte(`["A","B"]`), stale)
	require.NoError(t, err)

	// Reusing the stale token must fail the compare-and-swap.
	_, err = client.Put(ctx, "medici.json", []byte(`["A","C"]`), stale)
	assert.ErrorIs(t, err, store.ErrConflict)

	// The refreshed token still works.
	_, err = client.Put(ctx, "medici.json", []byte(`["A","C"]`), fresh)
	assert.NoError(t, err)
}

func TestPut_CreateOverExistingConflicts(t *testing.T) {
	fake := newFakeContents()
	client, _ := newTestClient(t, fake)
	ctx := context.Background()

	_, err := client.Put(ctx, "medici.json", []byte(`[]`), "")
	require.NoError(t, err)

	_, err = client.Put(ctx, "medici.json", []byte(`[]`), "")
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestClassify_StatusCodes(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantErr   error
		transient bool
	}{
		{"unauthorized", http.StatusUnauthorized, store.ErrUnauthorized, false},
		{"forbidden", http.StatusForbidden, store.ErrUnauthorized, false},
		{"server error", http.StatusInternalServerError, nil, true},
		{"bad gateway", http.StatusBadGateway, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeContents()
			fake.failWith = tt.status
			client, _ := newTestClient(t, fake)

			_, _, err := client.Get(context.Background(), "medici.json")
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.transient, store.IsTransient(err))
		})
	}
}
