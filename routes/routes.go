package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/Kasai-Ohara-Tsu/apo2/config"
	"github.com/Kasai-Ohara-Tsu/apo2/controllers"
	_ "github.com/Kasai-Ohara-Tsu/apo2/docs"
	"github.com/Kasai-Ohara-Tsu/apo2/middleware"
	"github.com/Kasai-Ohara-Tsu/apo2/services/container"
)

// SetupRouter 初始化并返回配置好的路由
func SetupRouter(db *gorm.DB, cfg *config.Config) (*gin.Engine, *container.ServiceContainer) {
	// 初始化 Gin
	r := gin.Default()

	// 添加 CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", cfg.FrontendBaseURL)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
	// 创建 Redis 客户端并构建服务容器，缓存与连通性探测共用同一连接池
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	serviceContainer := container.NewServiceContainer(db, cfg, redisClient)
	// 初始化中间件
	middleware.InitAuthMiddleware(cfg)
	// 添加 Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 注册路由
	registerRoutes(r, serviceContainer)
	return r, serviceContainer
}

// registerRoutes 配置所有API路由
func registerRoutes(
	r *gin.Engine,
	container *container.ServiceContainer,
) {
	// 推送通道走独立的 /ws 前缀，不能带 JSON Content-Type
	ws := r.Group("/ws")
	ws.GET("/staff/:staff_id", controllers.HandlePushFunc(container, "staffChannel"))
	ws.GET("/reception", controllers.HandlePushFunc(container, "receptionChannel"))

	// API 路由根路径
	api := r.Group("/api")
	// 设置正确的Content-Type，确保UTF-8编码
	api.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		c.Next()
	})
	// 注册公共路由
	registerPublicRoutes(api, container)
	// 注册需要认证的路由
	registerAuthenticatedRoutes(api, container)
}

// registerPublicRoutes 注册公共路由（受付端和社员端无需登录）
func registerPublicRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// 健康检查
	api.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// 认证路由
	api.POST("/auth/login", controllers.HandleJWTFunc(container, "login"))

	// 来访记录路由：受付向导和社员响应画面
	api.POST("/visits", controllers.HandleVisitFunc(container, "createVisit"))
	api.GET("/visits/purposes", controllers.HandleVisitFunc(container, "getPurposes"))
	api.GET("/visits/:id", controllers.HandleVisitFunc(container, "getVisit"))
	api.POST("/visits/:id/notify", controllers.HandleVisitFunc(container, "notify"))
	api.POST("/visits/:id/respond", controllers.HandleVisitFunc(container, "respond"))
	api.POST("/visits/:id/escalate", controllers.HandleVisitFunc(container, "escalate"))
	api.POST("/visits/:id/complete", controllers.HandleVisitFunc(container, "complete"))
	api.DELETE("/visits/:id", controllers.HandleVisitFunc(container, "cancel"))

	// 社员检索：受付向导的担当者选择
	api.GET("/staff", controllers.HandleStaffFunc(container, "getStaffs"))
	api.GET("/staff/search", controllers.HandleStaffFunc(container, "searchStaffs"))
	api.GET("/staff/:id", controllers.HandleStaffFunc(container, "getStaff"))

	// 部署树：受付向导的部署选择
	api.GET("/departments", controllers.HandleDepartmentFunc(container, "getDepartments"))
	api.GET("/departments/hierarchy", controllers.HandleDepartmentFunc(container, "getHierarchy"))

	// 系统设置读取
	api.GET("/settings/get", controllers.HandleSettingFunc(container, "getSetting"))
	api.GET("/settings/escalation-interval", controllers.HandleSettingFunc(container, "getEscalationInterval"))
}

// registerAuthenticatedRoutes 注册需要管理员认证的路由
func registerAuthenticatedRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// 添加认证中间件
	auth := api.Group("/")
	auth.Use(middleware.AuthenticateSystemAdmin())

	// 来访记录管理
	auth.Group("/visits").GET("", controllers.HandleVisitFunc(container, "getVisits"))
	auth.Group("/visits").GET("/statistics", controllers.HandleVisitFunc(container, "getStatistics"))

	// 社员管理
	auth.Group("/staff").POST("", controllers.HandleStaffFunc(container, "createStaff"))
	auth.Group("/staff").PUT("/:id", controllers.HandleStaffFunc(container, "updateStaff"))
	auth.Group("/staff").DELETE("/:id", controllers.HandleStaffFunc(container, "deleteStaff"))

	// 部署管理
	auth.Group("/departments").POST("", controllers.HandleDepartmentFunc(container, "createDepartment"))
	auth.Group("/departments").PUT("/:id", controllers.HandleDepartmentFunc(container, "updateDepartment"))
	auth.Group("/departments").DELETE("/:id", controllers.HandleDepartmentFunc(container, "deleteDepartment"))

	// 系统设置管理
	auth.Group("/settings").PUT("", controllers.HandleSettingFunc(container, "updateSetting"))
}
