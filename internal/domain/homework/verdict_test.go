package homework

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerdictFor(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{"approved", "Работа проверена: ревьюеру всё понравилось. Ура!"},
		{"reviewing", "Работа взята на проверку ревьюером."},
		{"rejected", "Работа проверена: у ревьюера есть замечания."},
	}
	for _, tt := range tests {
		got, err := VerdictFor(tt.status)
		require.NoError(t, err, tt.status)
		assert.Equal(t, tt.want, got)
	}

	for _, status := range []string{"", "APPROVED", "pending", "done"} {
		_, err := VerdictFor(status)
		assert.ErrorIs(t, err, ErrUnknownStatus, status)
	}
}

func TestFormatVerdict(t *testing.T) {
	msg, err := FormatVerdict(Record{"homework_name": "hw1", "status": "approved"})
	require.NoError(t, err)
	assert.Equal(t, `Изменился статус проверки работы "hw1". Работа проверена: ревьюеру всё понравилось. Ура!`, msg)

	for _, status := range []Status{StatusApproved, StatusReviewing, StatusRejected} {
		verdict, _ := VerdictFor(string(status))
		msg, err := FormatVerdict(Record{"homework_name": "project_sprint_7", "status": string(status)})
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf(`Изменился статус проверки работы "project_sprint_7". %s`, verdict), msg)
	}
}

func TestFormatVerdictFailures(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		want   error
	}{
		{"missing name", Record{"status": "approved"}, ErrMissingField},
		{"empty name", Record{"homework_name": "", "status": "approved"}, ErrMissingField},
		{"non-string name", Record{"homework_name": 7.0, "status": "approved"}, ErrMissingField},
		{"nil record", nil, ErrUnknownStatus},
		{"unknown status without name", Record{"status": "bogus"}, ErrUnknownStatus},
		{"missing status and name", Record{}, ErrUnknownStatus},
		{"missing status", Record{"homework_name": "hw1"}, ErrUnknownStatus},
		{"unknown status", Record{"homework_name": "hw1", "status": "pending"}, ErrUnknownStatus},
		{"non-string status", Record{"homework_name": "hw1", "status": true}, ErrUnknownStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := FormatVerdict(tt.record)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, msg)
		})
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&FetchError{StatusCode: 503}, "fetch"},
		{fmt.Errorf("cycle: %w", &FetchError{Err: errors.New("connection refused")}), "fetch"},
		{fmt.Errorf("%w: bad json", ErrDecode), "decode"},
		{fmt.Errorf("%w: homeworks", ErrMissingKey), "missing_key"},
		{fmt.Errorf("%w: homeworks", ErrShape), "shape"},
		{fmt.Errorf("%w: homework_name", ErrMissingField), "missing_field"},
		{fmt.Errorf("%w: x", ErrUnknownStatus), "unknown_status"},
		{fmt.Errorf("%w: timeout", ErrNotify), "notify"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Kind(tt.err))
	}
}

func TestFetchErrorMessage(t *testing.T) {
	err := &FetchError{StatusCode: 503}
	assert.Equal(t, "fetch failure: unexpected status 503", err.Error())
	assert.True(t, errors.Is(err, ErrFetch))

	cause := errors.New("dial tcp: connection refused")
	err = &FetchError{Err: cause}
	assert.Equal(t, "fetch failure: dial tcp: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}
