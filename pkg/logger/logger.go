package logger

// Backend is a logging sink. All pipeline packages log through the
// package-level functions below so the binary decides where output goes.
type Backend interface {
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

type dispatcher struct {
	backends []Backend
}

var global *dispatcher

// Init wires the global logger to one or more backends. Call it once at
// process start; logging before Init is a no-op.
func Init(backends ...Backend) {
	global = &dispatcher{backends: backends}
}

// Debug writes a message at DEBUG level to all configured backends.
func Debug(message string, keyvals ...any) {
	if global == nil {
		return
	}
	for _, b := range global.backends {
		b.Debug(message, keyvals...)
	}
}

// Info writes a message at INFO level to all configured backends.
func Info(message string, keyvals ...any) {
	if global == nil {
		return
	}
	for _, b := range global.backends {
		b.Info(message, keyvals...)
	}
}

// Warn writes a message at WARN level to all configured backends.
func Warn(message string, keyvals ...any) {
	if global == nil {
		return
	}
	for _, b := range global.backends {
		b.Warn(message, keyvals...)
	}
}

// Error writes a message at ERROR level to all configured backends.
func Error(message string, keyvals ...any) {
	if global == nil {
		return
	}
	for _, b := range global.backends {
		b.Error(message, keyvals...)
	}
}

// Fatal writes a message at FATAL level and terminates the program.
func Fatal(message string, keyvals ...any) {
	if global == nil {
		return
	}
	for _, b := range global.backends {
		b.Fatal(message, keyvals...)
	}
}
