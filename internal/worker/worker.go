// Package worker поднимает подключения всех аккаунтов при старте сервиса.
package worker

import (
	"tgrelay/pkg/logger"
	"tgrelay/pkg/storage"
	"tgrelay/pkg/telegram/registry"
	"tgrelay/pkg/telegram/supervisor"
)

// Startup загружает из БД все аккаунты, которые были в сети, и запускает
// по супервизору на каждый. Каждый аккаунт живёт в собственной горутине;
// сбой одного не затрагивает остальных.
func Startup(db *storage.DB, reg *registry.Registry, lg *logger.Broadcaster) error {
	accounts, err := db.GetConnectableAccounts()
	if err != nil {
		return err
	}

	lg.Logf("[WORKER] запуск: аккаунтов к подключению %d", len(accounts))
	for _, acc := range accounts {
		lg.Logf("[WORKER] поднимаем клиента для %s", acc.Phone)
		go supervisor.Run(db, reg, lg, acc)
	}
	return nil
}
