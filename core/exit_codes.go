package core

// Process exit codes shared by the summarize command and the server.
// Signal exits use the shell convention 128+signal.
const (
	ExitCodeSuccess = 0

	// ExitCodeError covers a missing credential, unreadable input and a
	// failed LLM call alike; the message on stderr says which.
	ExitCodeError = 1

	// ExitCodeUsage is a flag mistake or no input at all.
	ExitCodeUsage = 2

	ExitCodeSIGINT  = 128 + 2
	ExitCodeSIGTERM = 128 + 15
)

var exitCodeNames = map[int]string{
	ExitCodeSuccess: "success",
	ExitCodeError:   "error",
	ExitCodeUsage:   "usage",
	ExitCodeSIGINT:  "interrupted (SIGINT)",
	ExitCodeSIGTERM: "terminated (SIGTERM)",
}

// ExitCodeName describes code for logs and service status messages.
func ExitCodeName(code int) string {
	if name, ok := exitCodeNames[code]; ok {
		return name
	}
	return "unknown"
}
