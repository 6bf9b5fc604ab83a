package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kasai-Ohara-Tsu/apo2/internal/error/code"
	"github.com/Kasai-Ohara-Tsu/apo2/internal/error/response"
	"github.com/Kasai-Ohara-Tsu/apo2/models"
	"github.com/Kasai-Ohara-Tsu/apo2/services"
	"github.com/Kasai-Ohara-Tsu/apo2/services/container"
)

// SettingController 处理系统设置相关的请求
type SettingController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewSettingController 创建一个新的系统设置控制器
func NewSettingController(ctx *gin.Context, container *container.ServiceContainer) *SettingController {
	return &SettingController{
		Ctx:       ctx,
		Container: container,
	}
}

// UpdateSettingRequest 表示更新系统设置的请求
type UpdateSettingRequest struct {
	Key         string `json:"key" binding:"required" example:"escalation_interval_seconds"`
	Value       string `json:"value" binding:"required" example:"5"`
	Description string `json:"description" example:"受付画面升级轮询间隔（秒）"`
}

// HandleSettingFunc 返回一个处理系统设置请求的Gin处理函数
func HandleSettingFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewSettingController(ctx, container)

		switch method {
		case "getSetting":
			controller.GetSetting()
		case "updateSetting":
			controller.UpdateSetting()
		case "getEscalationInterval":
			controller.GetEscalationInterval()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}

// settingService 从容器取系统设置服务
func (c *SettingController) settingService() services.InterfaceSettingService {
	return c.Container.GetService("setting").(services.InterfaceSettingService)
}

// GetSetting 读取单个系统设置
// @Summary      Get Setting
// @Description  Get a system setting value by key
// @Tags         Setting
// @Accept       json
// @Produce      json
// @Param        key query string true "Setting key" example:"escalation_interval_seconds"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /settings/get [get]
func (c *SettingController) GetSetting() {
	key := c.Ctx.Query("key")
	if key == "" {
		response.ParamError(c.Ctx, "设置键不能为空")
		return
	}

	value, err := c.settingService().GetSetting(key)
	if err != nil {
		if errors.Is(err, services.ErrSettingNotFound) {
			response.Fail(c.Ctx, code.ErrSettingNotFound, nil)
		} else {
			response.Fail(c.Ctx, code.ErrDatabase, nil)
		}
		return
	}

	response.Success(c.Ctx, gin.H{"key": key, "value": value})
}

// UpdateSetting 更新系统设置
// @Summary      Update Setting
// @Description  Create or update a system setting
// @Tags         Setting
// @Accept       json
// @Produce      json
// @Param        request body UpdateSettingRequest true "Setting parameters"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /settings [put]
func (c *SettingController) UpdateSetting() {
	var req UpdateSettingRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数: "+err.Error())
		return
	}

	if err := c.settingService().SetSetting(req.Key, req.Value, req.Description); err != nil {
		response.Fail(c.Ctx, code.ErrDatabase, nil)
		return
	}

	response.Success(c.Ctx, gin.H{"key": req.Key, "value": req.Value})
}

// GetEscalationInterval 受付画面轮询升级等待秒数
// @Summary      Get Escalation Interval
// @Description  Get the escalation wait interval in seconds for the kiosk screen
// @Tags         Setting
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /settings/escalation-interval [get]
func (c *SettingController) GetEscalationInterval() {
	seconds := c.settingService().GetEscalationIntervalSeconds()
	response.Success(c.Ctx, gin.H{
		"key":   models.SettingEscalationIntervalSeconds,
		"value": seconds,
	})
}
