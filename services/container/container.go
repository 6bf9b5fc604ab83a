package container

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/Kasai-Ohara-Tsu/apo2/config"
	"github.com/Kasai-Ohara-Tsu/apo2/models"
	"github.com/Kasai-Ohara-Tsu/apo2/services"
)

// ServiceContainer 管理所有服务的依赖注入
type ServiceContainer struct {
	db     *gorm.DB
	config *config.Config
	redis  *redis.Client

	// 基础服务
	jwtService   *services.JWTService
	redisService *services.RedisService

	// 推送与通知
	pushRegistry        *models.ChannelRegistry
	pushService         services.InterfacePushService
	notificationService services.InterfaceNotificationService

	// 业务服务
	visitService      services.InterfaceVisitService
	staffService      services.InterfaceStaffService
	departmentService services.InterfaceDepartmentService
	settingService    services.InterfaceSettingService
	adminService      services.InterfaceAdminService

	mu sync.RWMutex
}

// NewServiceContainer 创建新的服务容器
func NewServiceContainer(db *gorm.DB, cfg *config.Config, redisClient *redis.Client) *ServiceContainer {
	if db == nil {
		panic("数据库连接为空")
	}

	if cfg == nil {
		panic("配置为空")
	}

	// 测试Redis连接
	if redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Redis连接测试失败: %v，将不使用Redis缓存", err)
		}
	}

	container := &ServiceContainer{
		db:     db,
		config: cfg,
		redis:  redisClient,
	}
	container.initializeServices()
	return container
}

// initializeServices 初始化所有服务
func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 初始化基础服务
	c.jwtService = services.NewJWTService(c.config)
	if c.redis == nil {
		c.redis = redis.NewClient(&redis.Options{
			Addr:     c.config.GetRedisAddr(),
			Password: c.config.RedisPassword,
			DB:       c.config.RedisDB,
		})
	}
	c.redisService = services.NewRedisService(c.redis)

	// 初始化推送通道与通知分发
	c.pushRegistry = models.NewChannelRegistry()
	c.pushService = services.NewPushService(c.pushRegistry)
	c.notificationService = services.NewNotificationService(c.pushRegistry, c.config)

	// 初始化业务服务
	c.visitService = services.NewVisitService(c.db, c.config, c.notificationService)
	c.staffService = services.NewStaffService(c.db)
	c.departmentService = services.NewDepartmentService(c.db)
	c.settingService = services.NewSettingService(c.db, c.config, c.redisService)
	c.adminService = services.NewAdminService(c.db, c.config)
}

// GetService 获取指定名称的服务
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "jwt":
		return c.jwtService
	case "redis":
		return c.redisService
	case "push_registry":
		return c.pushRegistry
	case "push":
		return c.pushService
	case "notification":
		return c.notificationService
	case "visit":
		return c.visitService
	case "staff":
		return c.staffService
	case "department":
		return c.departmentService
	case "setting":
		return c.settingService
	case "admin":
		return c.adminService
	default:
		return nil
	}
}

// GetDB 获取数据库连接
func (c *ServiceContainer) GetDB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// Shutdown 停机时收尾：排空 Webhook 队列
func (c *ServiceContainer) Shutdown() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.notificationService != nil {
		c.notificationService.Shutdown()
	}
}
