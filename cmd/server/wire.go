package main

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/thebandproject/bandsite/internal/config"
	"github.com/thebandproject/bandsite/internal/database"
	"github.com/thebandproject/bandsite/internal/model"
	"github.com/thebandproject/bandsite/internal/queue"
	"github.com/thebandproject/bandsite/internal/ratelimit"
	"github.com/thebandproject/bandsite/internal/repository"
	"github.com/thebandproject/bandsite/internal/service"
)

// messageBuffer bounds the in-memory message store used without a database.
const messageBuffer = 500

func connectRedis(ctx context.Context, c config.RedisConfig, log logrus.FieldLogger) *redis.Client {
	if !c.Enabled() {
		return nil
	}
	rdb, err := config.NewRedisClient(ctx, c)
	if err != nil {
		log.WithError(err).WithField("addr", c.Addr).Warn("redis unavailable; rate limiting in memory, response cache off")
		return nil
	}
	return rdb
}

func newLimiter(ctx context.Context, c config.RateLimitConfig, rdb *redis.Client, log logrus.FieldLogger) (*ratelimit.Limiter, error) {
	if c.Store == "redis" && rdb != nil {
		return ratelimit.New(ratelimit.NewRedisStore(rdb, c.Prefix), c.Limit, c.Window)
	}
	mem := ratelimit.NewMemoryStore()
	l, err := ratelimit.New(mem, c.Limit, c.Window)
	if err != nil {
		return nil, err
	}
	if _, err := ratelimit.StartSweeper(ctx, mem, c.Sweep, l.Now, log); err != nil {
		return nil, err
	}
	return l, nil
}

type stores struct {
	shows    repository.ShowStore
	messages repository.MessageStore
	close    func()
}

// openStores connects the configured driver.  With no driver, shows come
// from the bundled dataset only and messages are kept in memory.
func openStores(ctx context.Context, c config.StoreConfig, log logrus.FieldLogger) (stores, error) {
	switch c.Driver {
	case config.DriverMySQL:
		db, err := database.Open(c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
		if err != nil {
			return stores{}, err
		}
		if c.DBMigrate {
			if err := database.EnsureSchema(ctx, db); err != nil {
				_ = db.Close()
				return stores{}, err
			}
		}
		return stores{
			shows:    repository.NewShowRepo(db),
			messages: repository.NewMessageRepo(db),
			close:    closeDB(db, log),
		}, nil

	case config.DriverMongo:
		client, db, err := database.OpenMongo(ctx, c.MongoURI, c.MongoDB)
		if err != nil {
			return stores{}, err
		}
		if err := database.EnsureMongoIndexes(ctx, db); err != nil {
			log.WithError(err).Warn("mongo: creating indexes")
		}
		return stores{
			shows:    repository.NewMongoShowStore(db.Collection(database.ShowsCollection)),
			messages: repository.NewMongoMessageStore(db.Collection(database.MessagesCollection)),
			close:    disconnectMongo(client, log),
		}, nil

	default:
		log.Info("no store configured; using bundled shows and in-memory messages")
		return stores{
			messages: repository.NewMemoryMessageStore(messageBuffer),
			close:    func() {},
		}, nil
	}
}

func closeDB(db *sql.DB, log logrus.FieldLogger) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Warn("mysql: close")
		}
	}
}

func disconnectMongo(client *mongo.Client, log logrus.FieldLogger) func() {
	return func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("mongo: disconnect")
		}
	}
}

func loadFallback(path string) ([]model.Show, error) {
	if path != "" {
		return repository.LoadStaticShows(path)
	}
	return repository.BundledShows()
}

// newNotifier picks the notification sink: the broker when configured,
// direct SMTP otherwise, and a log line as the last resort.  The returned
// handler delivers mail and is what the broker consumer runs.
func newNotifier(c config.NotifyConfig, log logrus.FieldLogger) (service.Notifier, *queue.ContactHandler) {
	to := c.ContactEmail
	if to == "" {
		to = c.SMTPFrom
	}
	var mh *queue.ContactHandler
	if c.SMTPHost != "" {
		mailer := queue.NewSMTPMailer(c.SMTPHost, c.SMTPPort, c.SMTPUser, c.SMTPPass, c.SMTPFrom, to)
		mh = queue.NewContactHandler(mailer, c.PerMinute, log.WithField("component", "mailer"))
	}
	switch {
	case c.RabbitURL != "":
		return queue.NewAMQPNotifier(c.RabbitURL, log), mh
	case mh != nil:
		return queue.NewMailNotifier(mh), mh
	default:
		return queue.NewLogNotifier(log), mh
	}
}
