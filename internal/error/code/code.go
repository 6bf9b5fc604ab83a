package code

// HTTP状态码.
const (
	// StatusOK - 200: 成功.
	StatusOK = 200
	// StatusBadRequest - 400: 请求参数错误.
	StatusBadRequest = 400
	// StatusUnauthorized - 401: 未授权.
	StatusUnauthorized = 401
	// StatusForbidden - 403: 禁止访问.
	StatusForbidden = 403
	// StatusNotFound - 404: 资源不存在.
	StatusNotFound = 404
	// StatusConflict - 409: 状态冲突.
	StatusConflict = 409
	// StatusInternalServerError - 500: 服务器内部错误.
	StatusInternalServerError = 500
	// StatusTooManyRequests - 429: 请求过多.
	StatusTooManyRequests = 429
)

// 通用错误码 (100xxx).
const (
	// ErrSuccess - 200: 成功.
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500: 未知错误.
	ErrUnknown
	// ErrBind - 400: 请求参数绑定错误.
	ErrBind
	// ErrValidation - 400: 请求参数验证错误.
	ErrValidation
	// ErrTokenInvalid - 401: 令牌无效.
	ErrTokenInvalid
	// ErrTooManyRequests - 429: 请求频率过高.
	ErrTooManyRequests
)

// 用户相关错误码 (101xxx).
const (
	// ErrUserNotFound - 404: 用户不存在.
	ErrUserNotFound int = iota + 101000
	// ErrUserAlreadyExist - 400: 用户已存在.
	ErrUserAlreadyExist
	// ErrUserPasswordIncorrect - 401: 用户密码错误.
	ErrUserPasswordIncorrect
)

// 社员相关错误码 (102xxx).
const (
	// ErrStaffNotFound - 404: 社员不存在.
	ErrStaffNotFound int = iota + 102000
	// ErrStaffAlreadyExist - 400: 社员已存在.
	ErrStaffAlreadyExist
)

// 部署相关错误码 (103xxx).
const (
	// ErrDepartmentNotFound - 404: 部署不存在.
	ErrDepartmentNotFound int = iota + 103000
	// ErrDepartmentAlreadyExist - 400: 部署已存在.
	ErrDepartmentAlreadyExist
)

// 来访相关错误码 (104xxx).
const (
	// ErrVisitNotFound - 404: 来访记录不存在.
	ErrVisitNotFound int = iota + 104000
	// ErrInvalidTransition - 409: 当前状态不允许该操作.
	ErrInvalidTransition
	// ErrInvalidDecision - 400: 响应决定无效.
	ErrInvalidDecision
	// ErrEscalationExhausted - 400: 升级链已到顶.
	ErrEscalationExhausted
	// ErrNoSubstituteAvailable - 400: 当前级别没有可用代理人.
	ErrNoSubstituteAvailable
)

// 数据库相关错误码 (105xxx).
const (
	// ErrDatabase - 500: 数据库错误.
	ErrDatabase int = iota + 105000
	// ErrRecordNotFound - 404: 记录不存在.
	ErrRecordNotFound
)

// 设置相关错误码 (106xxx).
const (
	// ErrSettingNotFound - 404: 系统设置不存在.
	ErrSettingNotFound int = iota + 106000
)
