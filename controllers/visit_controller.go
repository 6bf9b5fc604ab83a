package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Kasai-Ohara-Tsu/apo2/internal/error/code"
	"github.com/Kasai-Ohara-Tsu/apo2/internal/error/response"
	"github.com/Kasai-Ohara-Tsu/apo2/models"
	"github.com/Kasai-Ohara-Tsu/apo2/services"
	"github.com/Kasai-Ohara-Tsu/apo2/services/container"
)

// VisitController 处理来访记录相关的请求
type VisitController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewVisitController 创建一个新的来访控制器
func NewVisitController(ctx *gin.Context, container *container.ServiceContainer) *VisitController {
	return &VisitController{
		Ctx:       ctx,
		Container: container,
	}
}

// CreateVisitRequest 表示受付向导提交的来访登记请求
type CreateVisitRequest struct {
	VisitorName    string `json:"visitor_name" example:"山田太郎"`
	VisitorCompany string `json:"visitor_company" example:"株式会社サンプル"`
	VisitType      string `json:"visit_type" binding:"required,oneof=appointment no-appointment delivery" example:"appointment"`
	StaffID        *uint  `json:"staff_id" example:"1"`
	PurposePreset  string `json:"purpose_preset" example:"打ち合わせ"`
	PurposeCustom  string `json:"purpose_custom" example:""`
	PurposeType    string `json:"purpose_type" example:"preset"`
}

// NotifyRequest 表示指名担当者的请求
type NotifyRequest struct {
	StaffID uint `json:"staff_id" binding:"required" example:"1"`
}

// RespondRequest 表示担当者响应请求
type RespondRequest struct {
	Decision string `json:"decision" binding:"required" example:"available"`
	Message  string `json:"message" example:"すぐ向かいます"`
}

// HandleVisitFunc 返回一个处理来访请求的Gin处理函数
func HandleVisitFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewVisitController(ctx, container)

		switch method {
		case "createVisit":
			controller.CreateVisit()
		case "getVisit":
			controller.GetVisit()
		case "getVisits":
			controller.GetVisits()
		case "notify":
			controller.Notify()
		case "respond":
			controller.Respond()
		case "escalate":
			controller.Escalate()
		case "complete":
			controller.Complete()
		case "cancel":
			controller.Cancel()
		case "getStatistics":
			controller.GetStatistics()
		case "getPurposes":
			controller.GetPurposes()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}

// visitService 从容器取来访服务
func (c *VisitController) visitService() services.InterfaceVisitService {
	return c.Container.GetService("visit").(services.InterfaceVisitService)
}

// handleVisitError 把服务层错误换算成统一响应
func (c *VisitController) handleVisitError(err error) {
	switch {
	case errors.Is(err, services.ErrVisitNotFound):
		response.Fail(c.Ctx, code.ErrVisitNotFound, nil)
	case errors.Is(err, services.ErrStaffNotFound):
		response.Fail(c.Ctx, code.ErrStaffNotFound, nil)
	case errors.Is(err, services.ErrInvalidTransition):
		response.Fail(c.Ctx, code.ErrInvalidTransition, nil)
	case errors.Is(err, services.ErrInvalidDecision):
		response.Fail(c.Ctx, code.ErrInvalidDecision, nil)
	case errors.Is(err, services.ErrEscalationExhausted):
		response.Fail(c.Ctx, code.ErrEscalationExhausted, nil)
	case errors.Is(err, services.ErrNoSubstituteAvailable):
		response.Fail(c.Ctx, code.ErrNoSubstituteAvailable, nil)
	default:
		response.Fail(c.Ctx, code.ErrDatabase, nil)
	}
}

// CreateVisit 受付向导登记一条来访记录
// @Summary      Create Visit
// @Description  Register a new visit from the reception kiosk
// @Tags         Visit
// @Accept       json
// @Produce      json
// @Param        request body CreateVisitRequest true "Visit registration parameters"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /visits [post]
func (c *VisitController) CreateVisit() {
	var req CreateVisitRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数: "+err.Error())
		return
	}

	visit, err := c.visitService().CreateVisit(&services.CreateVisitInput{
		VisitorName:    req.VisitorName,
		VisitorCompany: req.VisitorCompany,
		VisitType:      models.VisitType(req.VisitType),
		StaffID:        req.StaffID,
		PurposePreset:  req.PurposePreset,
		PurposeCustom:  req.PurposeCustom,
		PurposeType:    req.PurposeType,
	})
	if err != nil {
		c.handleVisitError(err)
		return
	}

	response.Success(c.Ctx, visit)
}

// GetVisit 获取单条来访记录
// @Summary      Get Visit By ID
// @Description  Get details of a specific visit by ID
// @Tags         Visit
// @Accept       json
// @Produce      json
// @Param        id path int true "Visit ID" example:"1"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /visits/{id} [get]
func (c *VisitController) GetVisit() {
	visitID, ok := c.visitIDParam()
	if !ok {
		return
	}

	visit, err := c.visitService().GetVisitByID(visitID)
	if err != nil {
		c.handleVisitError(err)
		return
	}

	response.Success(c.Ctx, visit)
}

// GetVisits 获取来访记录列表
// @Summary      Get Visits
// @Description  Get a list of all visits in the system, with pagination
// @Tags         Visit
// @Accept       json
// @Produce      json
// @Param        page query int false "Page number, default is 1" example:"1"
// @Param        page_size query int false "Items per page, default is 10" example:"10"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  ErrorResponse
// @Router       /visits [get]
func (c *VisitController) GetVisits() {
	page, _ := strconv.Atoi(c.Ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("page_size", "10"))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	visits, total, err := c.visitService().GetAllVisits(page, pageSize)
	if err != nil {
		c.handleVisitError(err)
		return
	}

	response.Success(c.Ctx, gin.H{
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": (total + int64(pageSize) - 1) / int64(pageSize),
		"records":     visits,
	})
}

// Notify 指名担当者并发出来客通知
// @Summary      Notify Staff
// @Description  Assign a staff member to a visit and push a visitor notification
// @Tags         Visit
// @Accept       json
// @Produce      json
// @Param        id path int true "Visit ID" example:"1"
// @Param        request body NotifyRequest true "Notify parameters"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /visits/{id}/notify [post]
func (c *VisitController) Notify() {
	visitID, ok := c.visitIDParam()
	if !ok {
		return
	}

	var req NotifyRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数: "+err.Error())
		return
	}

	visit, err := c.visitService().Notify(visitID, req.StaffID)
	if err != nil {
		c.handleVisitError(err)
		return
	}

	response.Success(c.Ctx, visit)
}

// Respond 担当者回复可否接待
// @Summary      Respond To Visit
// @Description  Record the assigned staff member's decision for a visit
// @Tags         Visit
// @Accept       json
// @Produce      json
// @Param        id path int true "Visit ID" example:"1"
// @Param        request body RespondRequest true "Respond parameters"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /visits/{id}/respond [post]
func (c *VisitController) Respond() {
	visitID, ok := c.visitIDParam()
	if !ok {
		return
	}

	var req RespondRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数: "+err.Error())
		return
	}

	visit, err := c.visitService().Respond(visitID, req.Decision, req.Message)
	if err != nil {
		c.handleVisitError(err)
		return
	}

	response.Success(c.Ctx, visit)
}

// Escalate 沿升级链改派通知对象
// @Summary      Escalate Visit
// @Description  Reassign the visit to the next contact on the escalation chain
// @Tags         Visit
// @Accept       json
// @Produce      json
// @Param        id path int true "Visit ID" example:"1"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /visits/{id}/escalate [post]
func (c *VisitController) Escalate() {
	visitID, ok := c.visitIDParam()
	if !ok {
		return
	}

	result, err := c.visitService().Escalate(visitID)
	if err != nil {
		c.handleVisitError(err)
		return
	}

	response.Success(c.Ctx, result)
}

// Complete 接待结束
// @Summary      Complete Visit
// @Description  Mark an accepted or unavailable visit as completed
// @Tags         Visit
// @Accept       json
// @Produce      json
// @Param        id path int true "Visit ID" example:"1"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /visits/{id}/complete [post]
func (c *VisitController) Complete() {
	visitID, ok := c.visitIDParam()
	if !ok {
		return
	}

	visit, err := c.visitService().Complete(visitID)
	if err != nil {
		c.handleVisitError(err)
		return
	}

	response.Success(c.Ctx, visit)
}

// Cancel 访客中止受付
// @Summary      Cancel Visit
// @Description  Cancel a visit from the kiosk and delete the record
// @Tags         Visit
// @Accept       json
// @Produce      json
// @Param        id path int true "Visit ID" example:"1"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /visits/{id} [delete]
func (c *VisitController) Cancel() {
	visitID, ok := c.visitIDParam()
	if !ok {
		return
	}

	if err := c.visitService().Cancel(visitID); err != nil {
		c.handleVisitError(err)
		return
	}

	response.Success(c.Ctx, nil)
}

// GetStatistics 获取来访统计信息
// @Summary      Get Visit Statistics
// @Description  Get visit statistics grouped by status for the recent period
// @Tags         Visit
// @Accept       json
// @Produce      json
// @Param        days query int false "Number of days, default is 7" example:"7"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  ErrorResponse
// @Router       /visits/statistics [get]
func (c *VisitController) GetStatistics() {
	days, _ := strconv.Atoi(c.Ctx.DefaultQuery("days", "7"))

	statistics, err := c.visitService().GetVisitStatistics(days)
	if err != nil {
		c.handleVisitError(err)
		return
	}

	response.Success(c.Ctx, statistics)
}

// GetPurposes 获取受付向导的来访目的候选列表
// @Summary      Get Visit Purposes
// @Description  Get the preset visit purpose options shown on the reception kiosk
// @Tags         Visit
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /visits/purposes [get]
func (c *VisitController) GetPurposes() {
	response.Success(c.Ctx, gin.H{
		"purposes": models.PurposePresets,
	})
}

// visitIDParam 解析路径里的来访记录ID
func (c *VisitController) visitIDParam() (uint, bool) {
	id, err := strconv.Atoi(c.Ctx.Param("id"))
	if err != nil || id <= 0 {
		response.ParamError(c.Ctx, "无效的来访记录ID")
		return 0, false
	}
	return uint(id), true
}
