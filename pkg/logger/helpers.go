package logger

// LogPage records one page request of the pagination loop
func LogPage(log Logger, blog string, offset, limit, remaining, posts int) {
	log.InfoWithFields("page fetched", map[string]interface{}{
		"blog":      blog,
		"offset":    offset,
		"limit":     limit,
		"remaining": remaining,
		"posts":     posts,
	})
}

// LogDownload records the outcome of one image download attempt. replaced
// marks a save that wrote over an earlier image with the same file name.
func LogDownload(log Logger, url, file string, skipped, replaced bool, err error) {
	fields := map[string]interface{}{
		"url":  url,
		"file": file,
	}

	switch {
	case err != nil:
		log.WithError(err).ErrorWithFields("download failed", fields)
	case skipped:
		log.DebugWithFields("download skipped", fields)
	case replaced:
		log.WarnWithFields("image saved over an earlier file with the same name", fields)
	default:
		log.InfoWithFields("image saved", fields)
	}
}

// LogRunSummary records the totals of a finished run
func LogRunSummary(log Logger, fields map[string]interface{}) {
	log.InfoWithFields("run finished", fields)
}

// NewNopLogger creates a no-operation logger
func NewNopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (n nopLogger) Debug(string)                                   {}
func (n nopLogger) Info(string)                                    {}
func (n nopLogger) Warn(string)                                    {}
func (n nopLogger) Error(string)                                   {}
func (n nopLogger) WithField(string, interface{}) Logger           { return n }
func (n nopLogger) WithFields(map[string]interface{}) Logger       { return n }
func (n nopLogger) WithError(error) Logger                         { return n }
func (n nopLogger) DebugWithFields(string, map[string]interface{}) {}
func (n nopLogger) InfoWithFields(string, map[string]interface{})  {}
func (n nopLogger) WarnWithFields(string, map[string]interface{})  {}
func (n nopLogger) ErrorWithFields(string, map[string]interface{}) {}
