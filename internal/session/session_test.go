package session

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"example.com/bc-solver/internal/solver"
	"example.com/bc-solver/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUniverse = solver.MustUniverse()

type memRecorder struct {
	mu      sync.Mutex
	results []store.Result
}

func (r *memRecorder) Record(_ context.Context, res store.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
	return nil
}

func (r *memRecorder) all() []store.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]store.Result(nil), r.results...)
}

// blockingRecorder holds Record until release is closed.
type blockingRecorder struct {
	entered chan struct{}
	release chan struct{}
}

func (r *blockingRecorder) Record(ctx context.Context, _ store.Result) error {
	close(r.entered)
	select {
	case <-r.release:
	case <-ctx.Done():
	}
	return nil
}

func newTestService(t *testing.T) (*Service, *MemoryStore, *memRecorder) {
	t.Helper()
	persist := NewMemoryStore()
	rec := &memRecorder{}
	return NewService(Config{Universe: testUniverse, Seed: 42}, persist, rec, nil), persist, rec
}

func newTestConn() *ClientConn {
	return &ClientConn{
		ws:   nil,
		send: make(chan []byte, 256),
	}
}

func readEnvelopesNonBlocking(c *ClientConn) []Envelope {
	var envs []Envelope
	for {
		select {
		case msg := <-c.send:
			var env Envelope
			if json.Unmarshal(msg, &env) == nil {
				envs = append(envs, env)
			}
		default:
			return envs
		}
	}
}

func findLast(envs []Envelope, typ string) (Envelope, bool) {
	for i := len(envs) - 1; i >= 0; i-- {
		if envs[i].Type == typ {
			return envs[i], true
		}
	}
	return Envelope{}, false
}

func mustNumber(t *testing.T, s string) solver.Number {
	t.Helper()
	n, err := solver.ParseNumber(s)
	require.NoError(t, err)
	return n
}

// play drives sess against secret until it finishes.
func play(t *testing.T, sess *Session, secret solver.Number) StatePayload {
	t.Helper()
	for i := 0; i < solver.MaxRounds; i++ {
		p, err := sess.RequestProbe()
		require.NoError(t, err)
		fb := solver.Score(secret, p.Probe)
		st, err := sess.SubmitFeedback(fb.Bulls, fb.Cows)
		require.NoError(t, err)
		if st.Status == StatusFinished {
			return st
		}
	}
	t.Fatalf("secret %s not solved", secret)
	return StatePayload{}
}

func TestSession_Scenarios(t *testing.T) {
	type scenario struct {
		name string
		run  func(t *testing.T)
	}

	cases := []scenario{
		{
			name: "solves the secret and records one result",
			run: func(t *testing.T) {
				svc, _, rec := newTestService(t)
				sess, err := svc.Create(context.Background())
				require.NoError(t, err)

				secret := mustNumber(t, "1234")
				st := play(t, sess, secret)

				require.NotNil(t, st.Correct)
				assert.True(t, *st.Correct)
				require.NotNil(t, st.Solved)
				assert.Equal(t, secret, *st.Solved)
				assert.Nil(t, st.Pending)

				results := rec.all()
				require.Len(t, results, 1)
				assert.Equal(t, sess.ID(), results[0].SessionID)
				assert.Equal(t, "1234", results[0].Solved)
				assert.True(t, results[0].Correct)
				assert.Equal(t, st.Steps, results[0].Steps)
				assert.Len(t, results[0].Probes, st.Round)
				assert.Equal(t, uint64(42), results[0].Seed)
			},
		},
		{
			name: "contradictory answers finish as incorrect",
			run: func(t *testing.T) {
				svc, _, rec := newTestService(t)
				sess, err := svc.Create(context.Background())
				require.NoError(t, err)

				_, err = sess.RequestProbe()
				require.NoError(t, err)
				st, err := sess.SubmitFeedback(0, 4)
				require.NoError(t, err)
				require.Equal(t, StatusInProgress, st.Status)

				_, err = sess.RequestProbe()
				require.NoError(t, err)
				st, err = sess.SubmitFeedback(0, 0)
				require.NoError(t, err)

				assert.Equal(t, StatusFinished, st.Status)
				require.NotNil(t, st.Correct)
				assert.False(t, *st.Correct)
				assert.Nil(t, st.Solved)
				assert.Equal(t, 0, st.Possible)

				results := rec.all()
				require.Len(t, results, 1)
				assert.False(t, results[0].Correct)
				assert.Empty(t, results[0].Solved)

				_, err = sess.RequestProbe()
				assert.ErrorIs(t, err, solver.ErrGameFinished)
			},
		},
		{
			name: "bad feedback leaves the session unchanged",
			run: func(t *testing.T) {
				svc, _, _ := newTestService(t)
				sess, err := svc.Create(context.Background())
				require.NoError(t, err)

				_, err = sess.SubmitFeedback(1, 1)
				assert.ErrorIs(t, err, solver.ErrNoPendingProbe)

				p, err := sess.RequestProbe()
				require.NoError(t, err)
				_, err = sess.SubmitFeedback(3, 2)
				assert.ErrorIs(t, err, solver.ErrInvalidFeedback)

				st := sess.State()
				assert.Empty(t, st.History)
				require.NotNil(t, st.Pending)
				assert.Equal(t, p.Probe, *st.Pending)
				assert.Equal(t, 1, st.Round)
			},
		},
		{
			name: "attached connection receives state, probe and finished",
			run: func(t *testing.T) {
				svc, _, _ := newTestService(t)
				sess, err := svc.Create(context.Background())
				require.NoError(t, err)

				cc := newTestConn()
				sess.Attach(cc)
				_, ok := findLast(readEnvelopesNonBlocking(cc), "state")
				require.True(t, ok)

				p, err := sess.RequestProbe()
				require.NoError(t, err)
				env, ok := findLast(readEnvelopesNonBlocking(cc), "probe")
				require.True(t, ok)
				var got ProbePayload
				require.NoError(t, json.Unmarshal(env.Payload, &got))
				assert.Equal(t, p, got)

				_, err = sess.SubmitFeedback(4, 0)
				require.NoError(t, err)
				envs := readEnvelopesNonBlocking(cc)
				_, ok = findLast(envs, "finished")
				require.True(t, ok)
				env, ok = findLast(envs, "state")
				require.True(t, ok)
				var st StatePayload
				require.NoError(t, json.Unmarshal(env.Payload, &st))
				assert.Equal(t, StatusFinished, st.Status)
				require.NotNil(t, st.Solved)
				assert.Equal(t, p.Probe, *st.Solved)
				assert.Equal(t, 1, st.Steps)
			},
		},
		{
			name: "second attach replaces the first connection",
			run: func(t *testing.T) {
				svc, _, _ := newTestService(t)
				sess, err := svc.Create(context.Background())
				require.NoError(t, err)

				first, second := newTestConn(), newTestConn()
				sess.Attach(first)
				sess.Attach(second)

				first.mu.Lock()
				assert.True(t, first.closed)
				first.mu.Unlock()

				sess.Detach(first) // stale detach must not drop the new driver
				_, err = sess.RequestProbe()
				require.NoError(t, err)
				_, ok := findLast(readEnvelopesNonBlocking(second), "probe")
				assert.True(t, ok)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, tc.run)
	}
}

func TestService_RestoreFromSnapshot(t *testing.T) {
	ctx := context.Background()
	svc1, persist, _ := newTestService(t)

	sess, err := svc1.Create(ctx)
	require.NoError(t, err)

	secret := mustNumber(t, "5079")
	p, err := sess.RequestProbe()
	require.NoError(t, err)
	fb := solver.Score(secret, p.Probe)
	_, err = sess.SubmitFeedback(fb.Bulls, fb.Cows)
	require.NoError(t, err)
	if sess.State().Status == StatusFinished {
		t.Skip("solved on the first probe")
	}
	_, err = sess.RequestProbe()
	require.NoError(t, err)
	want := sess.State()

	// restart: new service, same storage
	svc2 := NewService(Config{Universe: testUniverse, Seed: 7}, persist, nil, nil)
	restored, ok, err := svc2.GetOrLoad(ctx, sess.ID())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, restored.State())

	// and the game goes on to the right answer
	st := play(t, restored, secret)
	require.NotNil(t, st.Solved)
	assert.Equal(t, secret, *st.Solved)

	// cached afterwards
	again, ok, err := svc2.GetOrLoad(ctx, sess.ID())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, restored, again)
}

func TestService_UnknownAndDeleted(t *testing.T) {
	ctx := context.Background()
	svc, persist, _ := newTestService(t)

	_, ok, err := svc.GetOrLoad(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	sess, err := svc.Create(ctx)
	require.NoError(t, err)
	_, found, _ := persist.Load(ctx, sess.ID())
	require.True(t, found)

	require.NoError(t, svc.Delete(ctx, sess.ID()))
	_, found, _ = persist.Load(ctx, sess.ID())
	assert.False(t, found)
	_, ok, err = svc.GetOrLoad(ctx, sess.ID())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_SnapshotTracksEveryChange(t *testing.T) {
	ctx := context.Background()
	svc, persist, _ := newTestService(t)

	sess, err := svc.Create(ctx)
	require.NoError(t, err)

	snap, _, _ := persist.Load(ctx, sess.ID())
	assert.False(t, snap.Pending)
	assert.Empty(t, snap.History)
	assert.Equal(t, uint64(42), snap.Seed)

	_, err = sess.RequestProbe()
	require.NoError(t, err)
	snap, _, _ = persist.Load(ctx, sess.ID())
	assert.True(t, snap.Pending)

	_, err = sess.SubmitFeedback(0, 1)
	require.NoError(t, err)
	snap, _, _ = persist.Load(ctx, sess.ID())
	assert.False(t, snap.Pending)
	require.Len(t, snap.History, 1)
	assert.Equal(t, solver.Feedback{Bulls: 0, Cows: 1}, snap.History[0].Feedback)
}

func TestSession_RecordRunsOutsideLock(t *testing.T) {
	rec := &blockingRecorder{entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(Config{Universe: testUniverse, Seed: 42}, NewMemoryStore(), rec, nil)
	sess, err := svc.Create(context.Background())
	require.NoError(t, err)

	_, err = sess.RequestProbe()
	require.NoError(t, err)

	submitted := make(chan StatePayload)
	go func() {
		st, err := sess.SubmitFeedback(4, 0)
		assert.NoError(t, err)
		submitted <- st
	}()

	select {
	case <-rec.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("result was never recorded")
	}

	// the session stays usable while the result is being written
	read := make(chan StatePayload)
	go func() { read <- sess.State() }()
	select {
	case st := <-read:
		assert.Equal(t, StatusFinished, st.Status)
	case <-time.After(time.Second):
		t.Fatal("State blocked behind Record")
	}

	close(rec.release)
	st := <-submitted
	assert.Equal(t, StatusFinished, st.Status)
}
