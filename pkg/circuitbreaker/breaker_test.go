package circuitbreaker

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend unavailable")

func enabledConfig(name string, threshold uint) Config {
	return Config{
		Name:             name,
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          50 * time.Millisecond,
		FailureThreshold: threshold,
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		cfg     Config
		wantNil bool
	}{
		{
			name: "enabled config builds a breaker",
			cfg:  enabledConfig("devices-repository", 5),
		},
		{
			name:    "disabled config yields nil",
			cfg:     Config{Name: "off"},
			wantNil: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cb := New[int](tc.cfg)
			if tc.wantNil {
				require.Nil(t, cb)
				require.Equal(t, "closed", cb.State())

				return
			}

			require.NotNil(t, cb)
			require.Equal(t, tc.cfg.Name, cb.Name())
			require.Equal(t, "closed", cb.State())
		})
	}
}

func TestExecute(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		cb      *CircuitBreaker[string]
		fn      func() (string, error)
		want    string
		wantErr error
	}{
		{
			name: "returns result through breaker",
			cb:   New[string](enabledConfig("ok", 3)),
			fn:   func() (string, error) { return "device", nil },
			want: "device",
		},
		{
			name: "nil breaker calls through",
			fn:   func() (string, error) { return "direct", nil },
			want: "direct",
		},
		{
			name:    "propagates call error",
			cb:      New[string](enabledConfig("err", 3)),
			fn:      func() (string, error) { return "", errBackend },
			wantErr: errBackend,
		},
		{
			name:    "nil breaker propagates call error",
			fn:      func() (string, error) { return "", errBackend },
			wantErr: errBackend,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := Execute(tc.cb, tc.fn)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				require.False(t, IsRejection(err))

				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestExecute_OpensAfterThreshold(t *testing.T) {
	t.Parallel()

	cb := New[string](enabledConfig("trip", 2))

	for range 2 {
		_, err := Execute(cb, func() (string, error) { return "", errBackend })
		require.ErrorIs(t, err, errBackend)
	}

	require.Equal(t, "open", cb.State())

	called := false
	_, err := Execute(cb, func() (string, error) {
		called = true

		return "x", nil
	})

	require.ErrorIs(t, err, ErrCircuitOpen)
	require.True(t, IsRejection(err))
	require.False(t, called)
}

func TestExecute_HalfOpenRecovers(t *testing.T) {
	t.Parallel()

	cb := New[string](enabledConfig("recover", 1))

	_, err := Execute(cb, func() (string, error) { return "", errBackend })
	require.ErrorIs(t, err, errBackend)
	require.Equal(t, "open", cb.State())

	require.Eventually(t, func() bool {
		return cb.State() == "half-open"
	}, time.Second, 10*time.Millisecond)

	got, err := Execute(cb, func() (string, error) { return "back", nil })
	require.NoError(t, err)
	require.Equal(t, "back", got)
	require.Equal(t, "closed", cb.State())
}

func TestExecute_IsSuccessfulKeepsCircuitClosed(t *testing.T) {
	t.Parallel()

	errNotFound := errors.New("not found")

	cfg := enabledConfig("classified", 1)
	cfg.IsSuccessful = func(err error) bool {
		return errors.Is(err, errNotFound)
	}

	cb := New[string](cfg)

	for range 5 {
		_, err := Execute(cb, func() (string, error) { return "", errNotFound })
		require.ErrorIs(t, err, errNotFound)
	}

	require.Equal(t, "closed", cb.State())
}

func TestExecute_OnStateChange(t *testing.T) {
	t.Parallel()

	var (
		mu          sync.Mutex
		transitions []string
	)

	cfg := enabledConfig("observed", 1)
	cfg.OnStateChange = func(name, from, to string) {
		mu.Lock()
		defer mu.Unlock()

		transitions = append(transitions, name+":"+from+"->"+to)
	}

	cb := New[int](cfg)

	_, err := Execute(cb, func() (int, error) { return 0, errBackend })
	require.ErrorIs(t, err, errBackend)

	mu.Lock()
	defer mu.Unlock()

	require.Equal(t, []string{"observed:closed->open"}, transitions)
}

func TestExecute_ZeroValueOnRejection(t *testing.T) {
	t.Parallel()

	type payload struct{ ID string }

	cb := New[*payload](enabledConfig("pointer", 1))

	_, _ = Execute(cb, func() (*payload, error) { return nil, errBackend })

	got, err := Execute(cb, func() (*payload, error) { return &payload{ID: "a"}, nil })
	require.ErrorIs(t, err, ErrCircuitOpen)
	require.Nil(t, got)
}
