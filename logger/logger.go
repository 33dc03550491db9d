package logger

import (
	"os"

	"go.uber.org/zap"
)

var Log *zap.Logger = getLogger()

func getLogger() *zap.Logger {
	var log *zap.Logger
	var err error

	if os.Getenv("ENV") == "prod" {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}

	if err != nil {
		panic("Unable to get zapper: " + err.Error())
	}
	return log
}

func Get() *zap.Logger {
	return Log
}

func Debug(msg string, fields ...zap.Field) {
	Log.Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	Log.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Log.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	Log.Error(msg, fields...)
}

// Fatal is a variable so tests can intercept process exit.
var Fatal = func(msg string, fields ...zap.Field) {
	Log.Fatal(msg, fields...)
}
