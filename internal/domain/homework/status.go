// internal/domain/homework/status.go
package homework

import "fmt"

// Status is a review status code reported by the homework API.
type Status string

const (
	StatusApproved  Status = "approved"
	StatusReviewing Status = "reviewing"
	StatusRejected  Status = "rejected"
)

var verdicts = map[Status]string{
	StatusApproved:  "Работа проверена: ревьюеру всё понравилось. Ура!",
	StatusReviewing: "Работа взята на проверку ревьюером.",
	StatusRejected:  "Работа проверена: у ревьюера есть замечания.",
}

// VerdictFor returns the human-readable verdict for a status code.
// There is no fallback verdict: an unknown status is an error.
func VerdictFor(status string) (string, error) {
	verdict, ok := verdicts[Status(status)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	return verdict, nil
}
