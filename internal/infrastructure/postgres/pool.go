package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/leadflow-api/pkg/config"
)

const (
	defaultMaxConns = 25
	defaultMinConns = 2
	fallbackDNS     = "8.8.8.8:53"
)

var errNoIPv4 = errors.New("sin dirección IPv4")

// PoolOptions tamaños del pool; ceros toman los valores por defecto.
type PoolOptions struct {
	MaxConns int32
	MinConns int32
}

func (o PoolOptions) apply(pc *pgxpool.Config) {
	pc.MaxConns = defaultMaxConns
	if o.MaxConns > 0 {
		pc.MaxConns = o.MaxConns
	}
	pc.MinConns = defaultMinConns
	if o.MinConns > 0 && o.MinConns <= pc.MaxConns {
		pc.MinConns = o.MinConns
	}
	if pc.MinConns > pc.MaxConns {
		pc.MinConns = pc.MaxConns
	}
	pc.MaxConnLifetime = time.Hour
	pc.MaxConnIdleTime = 30 * time.Minute
	pc.HealthCheckPeriod = time.Minute
}

// NewPool abre el pool del Entity Store y verifica la conexión con un ping.
// Los hosts se resuelven a IPv4: en Docker suele faltar IPv6 y algunos
// proveedores publican solo AAAA en el DNS del contenedor.
func NewPool(ctx context.Context, cfg config.DBConfig, opts PoolOptions) (*pgxpool.Pool, error) {
	res := newIPv4Resolver()
	pc, err := pgxpool.ParseConfig(res.dsn(ctx, cfg))
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	pc.ConnConfig.DialFunc = res.dial
	opts.apply(pc)
	// plot_size y montos son NUMERIC.
	pc.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

// ipv4Resolver consulta primero el resolver del sistema y luego un DNS público.
type ipv4Resolver struct {
	resolvers []*net.Resolver
}

func newIPv4Resolver() *ipv4Resolver {
	public := &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "udp", fallbackDNS)
		},
	}
	return &ipv4Resolver{resolvers: []*net.Resolver{net.DefaultResolver, public}}
}

func (r *ipv4Resolver) lookup(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() == nil {
			return "", errNoIPv4
		}
		return host, nil
	}
	lastErr := errNoIPv4
	for _, res := range r.resolvers {
		ips, err := res.LookupIP(ctx, "ip4", host)
		if err != nil {
			lastErr = err
			continue
		}
		for _, ip := range ips {
			if v4 := ip.To4(); v4 != nil {
				return v4.String(), nil
			}
		}
	}
	return "", lastErr
}

// dsn DATABASE_URL con el host reemplazado por su IPv4 o, sin URL, el DSN por campos.
// Si no hay IPv4 el host queda como vino.
func (r *ipv4Resolver) dsn(ctx context.Context, cfg config.DBConfig) string {
	if cfg.DatabaseURL == "" {
		if ip, err := r.lookup(ctx, cfg.Host); err == nil {
			cfg.Host = ip
		}
		return cfg.DSN()
	}
	u, err := url.Parse(cfg.DatabaseURL)
	if err != nil || u.Hostname() == "" {
		return cfg.DatabaseURL
	}
	ip, err := r.lookup(ctx, u.Hostname())
	if err != nil {
		return cfg.DatabaseURL
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	u.Host = net.JoinHostPort(ip, port)
	return u.String()
}

func (r *ipv4Resolver) dial(ctx context.Context, network, addr string) (net.Conn, error) {
	var d net.Dialer
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	if ip, err := r.lookup(ctx, host); err == nil {
		return d.DialContext(ctx, "tcp4", net.JoinHostPort(ip, port))
	}
	return d.DialContext(ctx, network, addr)
}
