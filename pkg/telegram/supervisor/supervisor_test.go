package supervisor

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"tgrelay/models"
	"tgrelay/pkg/logger"
	"tgrelay/pkg/storage"
	"tgrelay/pkg/telegram/registry"
)

// countingDriver — минимальный драйвер SQL, считающий запросы Exec.
// Нужен, чтобы проверять, что Run не трогает БД в обходных ветках.
type countingDriver struct{}

type countingConn struct{}

type countingResult struct{}

var execCount int

func (d *countingDriver) Open(name string) (driver.Conn, error) { return &countingConn{}, nil }

func (c *countingConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("not implemented")
}
func (c *countingConn) Close() error              { return nil }
func (c *countingConn) Begin() (driver.Tx, error) { return nil, errors.New("not implemented") }

func (c *countingConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	execCount++
	return countingResult{}, nil
}

func (countingResult) LastInsertId() (int64, error) { return 0, nil }
func (countingResult) RowsAffected() (int64, error) { return 1, nil }

func init() {
	sql.Register("supervisor_dummy", &countingDriver{})
}

// TestRunSkipsConnectedAccount: для аккаунта, который уже в реестре,
// повторный Run завершается сразу и не пишет статус в БД — иначе
// Connecting затрёт Online первого подключения.
func TestRunSkipsConnectedAccount(t *testing.T) {
	conn, err := sql.Open("supervisor_dummy", "")
	if err != nil {
		t.Fatalf("не удалось открыть фейковую БД: %v", err)
	}
	db := storage.NewDB(conn)

	reg := registry.New()
	_, cancel := context.WithCancel(context.Background())
	defer cancel()
	if !reg.Put("+100", &registry.Handle{Phone: "+100", Stop: cancel}) {
		t.Fatalf("первое подключение не зарегистрировалось")
	}

	execCount = 0
	Run(db, reg, logger.New(), models.Account{Phone: "+100"})
	if execCount != 0 {
		t.Fatalf("повторный Run не должен трогать БД, запросов: %d", execCount)
	}
	if _, ok := reg.Get("+100"); !ok {
		t.Fatalf("запись первого подключения пропала из реестра")
	}
}

// TestExitStatus: конечный статус по исходу подключения. Проигрыш гонки
// двух клиентов возвращает Online — он принадлежит первому подключению.
func TestExitStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"штатное завершение", nil, models.StatusOffline},
		{"отмена контекста", context.Canceled, models.StatusOffline},
		{"второй клиент", errDuplicate, models.StatusOnline},
		{"сбой подключения", errors.New("AUTH_KEY_UNREGISTERED"), models.StatusError},
	}
	for _, tc := range cases {
		if got := exitStatus(tc.err); got != tc.want {
			t.Fatalf("%s: ожидался %s, получен %s", tc.name, tc.want, got)
		}
	}
}
