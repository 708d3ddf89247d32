// Package groupjoin реализует последовательное вступление аккаунта в
// группы и каналы со строгими паузами против антифлуда.
package groupjoin

import (
	"context"
	"strings"
	"time"

	"tgrelay/models"
	"tgrelay/pkg/logger"
	tgx "tgrelay/pkg/telegram"
	"tgrelay/pkg/telegram/registry"

	"github.com/gotd/td/tg"
)

// pacing — пауза между попытками вступления. Telegram банит аккаунты
// за серийные вступления, поэтому пауза обязательна при любом исходе.
const pacing = 5 * time.Second

// JoinAll последовательно вступает по списку ссылок и возвращает результат
// по каждой непустой ссылке. Вызов синхронный: вызывающий ждёт весь список.
// Для неподключённого аккаунта попытки не выполняются вовсе.
func JoinAll(ctx context.Context, reg *registry.Registry, lg *logger.Broadcaster, phone string, links []string) []models.JoinResult {
	h, ok := reg.Get(phone)
	if !ok {
		results := make([]models.JoinResult, 0, len(links))
		for _, link := range links {
			results = append(results, models.JoinResult{Link: link, Status: models.JobError, Reason: "Account is not online"})
		}
		return results
	}

	join := func(ctx context.Context, link string) error {
		return joinOne(ctx, h.API, link)
	}
	return joinAll(ctx, join, links, pacing, lg.Logf, phone)
}

// joinAll — цикл вступлений, отделённый от сети ради тестов. Пауза
// выдерживается между последовательными попытками; после последней
// попытки ждать незачем.
func joinAll(ctx context.Context, join func(ctx context.Context, link string) error, links []string, pause time.Duration, logf func(format string, args ...any), phone string) []models.JoinResult {
	var results []models.JoinResult
	attempted := false
	for _, link := range links {
		if strings.TrimSpace(link) == "" {
			continue
		}
		if attempted {
			if err := tgx.Wait(ctx, pause); err != nil {
				results = append(results, models.JoinResult{Link: link, Status: models.JobError, Reason: err.Error()})
				continue
			}
		}
		attempted = true

		logf("[JOINER] %s: попытка вступления в %s", phone, link)
		err := join(ctx, link)
		switch {
		case err == nil:
			results = append(results, models.JoinResult{Link: link, Status: models.JobSuccess, Reason: "Successfully joined"})
			logf("[JOINER] %s: вступление в %s выполнено", phone, link)
		case strings.Contains(err.Error(), "USER_ALREADY_PARTICIPANT"):
			results = append(results, models.JoinResult{Link: link, Status: models.JobSkipped, Reason: "Already a member"})
			logf("[JOINER] %s: уже участник %s", phone, link)
		default:
			results = append(results, models.JoinResult{Link: link, Status: models.JobError, Reason: err.Error()})
			logf("[JOINER] %s: ошибка вступления в %s: %v", phone, link, err)
		}
	}
	return results
}

// joinOne вступает по одной ссылке: пригласительные ссылки идут через
// импорт приглашения, публичные имена — через вступление в канал.
func joinOne(ctx context.Context, api *tg.Client, link string) error {
	if hash, ok := tgx.InviteHash(link); ok {
		_, err := api.MessagesImportChatInvite(ctx, hash)
		return err
	}

	username, err := tgx.ExtractUsername(link)
	if err != nil {
		return err
	}
	ch, err := tgx.ResolveChannel(ctx, api, username)
	if err != nil {
		return err
	}
	_, err = api.ChannelsJoinChannel(ctx, &tg.InputChannel{
		ChannelID:  ch.ID,
		AccessHash: ch.AccessHash,
	})
	return err
}
