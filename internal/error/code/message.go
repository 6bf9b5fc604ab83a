package code

// 错误码消息映射
var codeMessageMap = map[int]string{
	// 通用错误码
	ErrSuccess:         "成功",
	ErrUnknown:         "未知错误",
	ErrBind:            "请求参数绑定错误",
	ErrValidation:      "请求参数验证错误",
	ErrTokenInvalid:    "无效的认证令牌",
	ErrTooManyRequests: "请求频率过高",

	// 用户相关错误码
	ErrUserNotFound:          "用户不存在",
	ErrUserAlreadyExist:      "用户已存在",
	ErrUserPasswordIncorrect: "用户密码错误",

	// 社员相关错误码
	ErrStaffNotFound:     "社员不存在",
	ErrStaffAlreadyExist: "社员已存在",

	// 部署相关错误码
	ErrDepartmentNotFound:     "部署不存在",
	ErrDepartmentAlreadyExist: "部署已存在",

	// 来访相关错误码
	ErrVisitNotFound:         "来访记录不存在",
	ErrInvalidTransition:     "当前状态不允许该操作",
	ErrInvalidDecision:       "响应决定无效",
	ErrEscalationExhausted:   "升级链已到顶，已转总务",
	ErrNoSubstituteAvailable: "当前级别没有可用代理人",

	// 数据库相关错误码
	ErrDatabase:       "数据库错误",
	ErrRecordNotFound: "记录不存在",

	// 设置相关错误码
	ErrSettingNotFound: "系统设置不存在",
}

// 错误码HTTP状态码映射
var codeStatusMap = map[int]int{
	// 通用错误码
	ErrSuccess:         StatusOK,
	ErrUnknown:         StatusInternalServerError,
	ErrBind:            StatusBadRequest,
	ErrValidation:      StatusBadRequest,
	ErrTokenInvalid:    StatusUnauthorized,
	ErrTooManyRequests: StatusTooManyRequests,

	// 用户相关错误码
	ErrUserNotFound:          StatusNotFound,
	ErrUserAlreadyExist:      StatusBadRequest,
	ErrUserPasswordIncorrect: StatusUnauthorized,

	// 社员相关错误码
	ErrStaffNotFound:     StatusNotFound,
	ErrStaffAlreadyExist: StatusBadRequest,

	// 部署相关错误码
	ErrDepartmentNotFound:     StatusNotFound,
	ErrDepartmentAlreadyExist: StatusBadRequest,

	// 来访相关错误码
	ErrVisitNotFound:         StatusNotFound,
	ErrInvalidTransition:     StatusConflict,
	ErrInvalidDecision:       StatusBadRequest,
	ErrEscalationExhausted:   StatusBadRequest,
	ErrNoSubstituteAvailable: StatusBadRequest,

	// 数据库相关错误码
	ErrDatabase:       StatusInternalServerError,
	ErrRecordNotFound: StatusNotFound,

	// 设置相关错误码
	ErrSettingNotFound: StatusNotFound,
}

// GetMessage 获取错误码对应的消息
func GetMessage(code int) string {
	if msg, ok := codeMessageMap[code]; ok {
		return msg
	}
	return "未知错误"
}

// GetStatus 获取错误码对应的HTTP状态码
func GetStatus(code int) int {
	if status, ok := codeStatusMap[code]; ok {
		return status
	}
	return StatusInternalServerError
}
