// internal/domain/homework/verdict.go
package homework

import "fmt"

const messageTemplate = `Изменился статус проверки работы "%s". %s`

// FormatVerdict builds the user-facing message for one record.
// The status is resolved first, so an unknown status wins over a missing name.
func FormatVerdict(rec Record) (string, error) {
	status, ok := rec.Status()
	if !ok {
		return "", fmt.Errorf("%w: status missing", ErrUnknownStatus)
	}
	verdict, err := VerdictFor(status)
	if err != nil {
		return "", err
	}

	name, ok := rec.Name()
	if !ok {
		return "", fmt.Errorf("%w: homework_name", ErrMissingField)
	}

	return fmt.Sprintf(messageTemplate, name, verdict), nil
}
