package middleware

import (
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

// RecoverFromPanic гасит панику обработчика апдейта: один сломанный
// апдейт не должен ронять polling-цикл.
func RecoverFromPanic() {
	if r := recover(); r != nil {
		log.WithFields(log.Fields{
			"panic": r,
			"stack": string(debug.Stack()),
		}).Error("ПАНИКА в обработчике апдейта — восстановлено")
	}
}
