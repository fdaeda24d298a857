package i18n

var messagesVI = map[string]string{
	// 通用
	"error.bad_request":                 "Yêu cầu không hợp lệ",
	"error.unauthorized":                "Bạn chưa đăng nhập",
	"error.forbidden":                   "Bạn không có quyền thực hiện thao tác này",
	"error.authz_builtin_policy_locked": "Không thể thu hồi quyền mặc định của vai trò hệ thống",
	"error.save_failed":                 "Lưu thất bại",
	"error.config_fetch_failed":         "Không tải được cấu hình cửa hàng",
	"error.name_required":               "Vui lòng nhập tên",
	"error.slug_invalid":                "Đường dẫn chỉ gồm chữ thường, số và dấu gạch ngang",
	"error.slug_exists":                 "Đường dẫn đã được sử dụng",
	"error.file_missing":                "Vui lòng chọn tệp cần tải lên",
	"error.upload_failed":               "Tải tệp lên thất bại",
	"error.rate_limited":                "Bạn thao tác quá nhanh, vui lòng thử lại sau %d giây",
	"error.rate_limit_unavailable":      "Hệ thống giới hạn tần suất đang bận, vui lòng thử lại",
	"error.login_too_many":              "Đăng nhập sai quá nhiều lần, vui lòng thử lại sau %d giây",

	// 存储
	"error.store_permission_denied":  "Không có quyền truy cập dữ liệu",
	"error.store_unavailable":        "Dịch vụ dữ liệu tạm thời không khả dụng",
	"error.store_resource_exhausted": "Hệ thống đang quá tải, vui lòng thử lại sau",
	"error.store_not_found":          "Không tìm thấy dữ liệu",
	"error.store_unknown":            "Đã xảy ra lỗi không mong muốn",

	// 鉴权
	"error.jwt_secret_missing":  "Máy chủ chưa cấu hình khóa xác thực",
	"error.auth_header_missing": "Thiếu thông tin xác thực",
	"error.auth_header_invalid": "Thông tin xác thực không đúng định dạng",
	"error.token_invalid":       "Phiên đăng nhập không hợp lệ",
	"error.token_revoked":       "Phiên đăng nhập đã hết hiệu lực, vui lòng đăng nhập lại",
	"error.login_failed":        "Đăng nhập thất bại",
	"error.login_invalid":       "Sai tài khoản hoặc mật khẩu",
	"error.register_failed":     "Đăng ký thất bại",
	"error.email_invalid":       "Email không hợp lệ",
	"error.email_exists":        "Email đã được đăng ký",
	"error.phone_invalid":       "Số điện thoại không hợp lệ",
	"error.profile_empty":       "Không có thông tin nào cần cập nhật",
	"error.user_disabled":       "Tài khoản đã bị khóa",
	"error.user_not_found":      "Không tìm thấy khách hàng",
	"error.user_status_invalid": "Trạng thái tài khoản không hợp lệ",
	"error.user_fetch_failed":   "Không tải được thông tin khách hàng",
	"error.user_update_failed":  "Cập nhật khách hàng thất bại",

	// 密码策略
	"error.password_old_invalid":     "Mật khẩu hiện tại không đúng",
	"error.password_min_length":      "Mật khẩu phải có ít nhất %d ký tự",
	"error.password_require_upper":   "Mật khẩu phải có chữ in hoa",
	"error.password_require_lower":   "Mật khẩu phải có chữ thường",
	"error.password_require_number":  "Mật khẩu phải có chữ số",
	"error.password_require_special": "Mật khẩu phải có ký tự đặc biệt",

	// 验证码
	"error.captcha_required":        "Vui lòng nhập mã xác nhận",
	"error.captcha_invalid":         "Mã xác nhận không đúng hoặc đã hết hạn",
	"error.captcha_verify_failed":   "Không kiểm tra được mã xác nhận",
	"error.captcha_generate_failed": "Không tạo được mã xác nhận",
	"error.captcha_unavailable":     "Mã xác nhận đang tắt",
	"error.captcha_config_invalid":  "Cấu hình mã xác nhận không hợp lệ",

	// 员工
	"error.admin_id_invalid":        "Mã nhân viên không hợp lệ",
	"error.admin_id_type_invalid":   "Mã nhân viên sai kiểu dữ liệu",
	"error.admin_not_found":         "Không tìm thấy nhân viên",
	"error.admin_exists":            "Tên đăng nhập đã tồn tại",
	"error.admin_username_invalid":  "Tên đăng nhập từ 3 đến 32 ký tự, gồm chữ thường, số và . _ -",
	"error.admin_role_invalid":      "Vai trò không tồn tại",
	"error.admin_create_failed":     "Tạo nhân viên thất bại",
	"error.admin_delete_failed":     "Xóa nhân viên thất bại",
	"error.admin_delete_forbidden":  "Không thể xóa tài khoản này",
	"error.settings_fetch_failed":   "Không tải được cài đặt",
	"error.settings_save_failed":    "Lưu cài đặt thất bại",
	"error.setting_key_invalid":     "Mục cài đặt không tồn tại",
	"error.shop_config_invalid":     "Cấu hình cửa hàng không hợp lệ",
	"error.shipping_fee_invalid":    "Phí giao hàng không hợp lệ",
	"error.customer_info_invalid":   "Vui lòng nhập đủ họ tên, số điện thoại và địa chỉ",
	"error.payment_method_invalid":  "Phương thức thanh toán không hợp lệ",
	"error.payment_method_disabled": "Phương thức thanh toán này tạm thời chưa hỗ trợ",
	"error.payment_status_invalid":  "Trạng thái thanh toán không hợp lệ",

	// 菜单
	"error.product_id_invalid":         "Mã món không hợp lệ",
	"error.product_not_found":          "Không tìm thấy món",
	"error.product_not_available":      "Món này hiện đã hết",
	"error.product_price_invalid":      "Giá món không hợp lệ",
	"error.product_size_invalid":       "Kích cỡ không hợp lệ",
	"error.product_size_table_invalid": "Bảng giá theo kích cỡ không hợp lệ",
	"error.product_fetch_failed":       "Không tải được thực đơn",
	"error.product_create_failed":      "Thêm món thất bại",
	"error.product_update_failed":      "Cập nhật món thất bại",
	"error.product_delete_failed":      "Xóa món thất bại",
	"error.category_id_invalid":        "Mã danh mục không hợp lệ",
	"error.category_not_found":         "Không tìm thấy danh mục",
	"error.category_in_use":            "Danh mục vẫn còn món, không thể xóa",
	"error.category_fetch_failed":      "Không tải được danh mục",
	"error.category_create_failed":     "Thêm danh mục thất bại",
	"error.category_update_failed":     "Cập nhật danh mục thất bại",
	"error.category_delete_failed":     "Xóa danh mục thất bại",

	// 购物车与订单
	"error.cart_empty":           "Giỏ hàng đang trống",
	"error.cart_session_invalid": "Phiên giỏ hàng không hợp lệ",
	"error.cart_fetch_failed":    "Không tải được giỏ hàng",
	"error.cart_update_failed":   "Cập nhật giỏ hàng thất bại",
	"error.order_item_invalid":   "Món trong đơn không hợp lệ",
	"error.order_not_found":      "Không tìm thấy đơn hàng",
	"error.order_forbidden":      "Bạn không có quyền xem đơn hàng này",
	"error.order_status_invalid": "Không thể chuyển trạng thái đơn hàng",
	"error.order_conflict":       "Đơn hàng vừa được cập nhật, vui lòng tải lại",
	"error.order_create_failed":  "Đặt hàng thất bại",
	"error.order_fetch_failed":   "Không tải được đơn hàng",
	"error.order_update_failed":  "Cập nhật đơn hàng thất bại",

	// 媒体库
	"error.media_not_found":           "Không tìm thấy tệp",
	"error.media_source_invalid":      "Nguồn lưu trữ không hợp lệ",
	"error.media_upload_invalid":      "Tệp không hợp lệ",
	"error.media_ids_required":        "Vui lòng chọn ít nhất một tệp",
	"error.media_cloudinary_disabled": "Cloudinary chưa được cấu hình",
	"error.media_fetch_failed":        "Không tải được thư viện ảnh",
	"error.media_save_failed":         "Lưu thông tin tệp thất bại",
	"error.media_update_failed":       "Cập nhật tệp thất bại",
	"error.media_delete_failed":       "Xóa tệp thất bại",
	"error.media_sync_failed":         "Đồng bộ Cloudinary thất bại",
	"error.media_sign_failed":         "Không tạo được chữ ký tải lên",

	// 通知
	"notify.order_status":        "Đơn %s: %s.",
	"notify.order_cancel_reason": "Lý do: %s",

	"email.order_status.subject":   "[BNT Kitchen] Cập nhật đơn hàng %s",
	"email.order_status.total":     "Tổng cộng: %s ₫",
	"email.order_status.guest_tip": "Bạn có thể tra cứu đơn hàng bằng mã %s trên trang đặt món.",

	// 订单状态
	"order.status.pending":    "Chờ xác nhận",
	"order.status.processing": "Đang chuẩn bị",
	"order.status.shipping":   "Đang giao",
	"order.status.completed":  "Hoàn thành",
	"order.status.cancelled":  "Đã hủy",
}

var messagesEN = map[string]string{
	"error.bad_request":                 "Invalid request",
	"error.unauthorized":                "Please sign in",
	"error.forbidden":                   "You are not allowed to do this",
	"error.authz_builtin_policy_locked": "Default permissions of a built-in role cannot be revoked",
	"error.save_failed":                 "Save failed",
	"error.config_fetch_failed":         "Failed to load shop configuration",
	"error.name_required":               "Name is required",
	"error.slug_invalid":                "Slug may only contain lowercase letters, digits and hyphens",
	"error.slug_exists":                 "Slug is already in use",
	"error.file_missing":                "Please choose a file to upload",
	"error.upload_failed":               "Upload failed",
	"error.rate_limited":                "Too many requests, retry in %d seconds",
	"error.rate_limit_unavailable":      "Rate limiter unavailable, please retry",
	"error.login_too_many":              "Too many failed sign-ins, retry in %d seconds",

	"error.store_permission_denied":  "Permission denied by the data store",
	"error.store_unavailable":        "The data store is temporarily unavailable",
	"error.store_resource_exhausted": "The data store is overloaded, please retry later",
	"error.store_not_found":          "Record not found",
	"error.store_unknown":            "An unexpected error occurred",

	"error.jwt_secret_missing":  "Authentication secret is not configured",
	"error.auth_header_missing": "Missing credentials",
	"error.auth_header_invalid": "Malformed credentials",
	"error.token_invalid":       "Invalid session",
	"error.token_revoked":       "Session expired, please sign in again",
	"error.login_failed":        "Sign-in failed",
	"error.login_invalid":       "Wrong account or password",
	"error.register_failed":     "Registration failed",
	"error.email_invalid":       "Invalid email address",
	"error.email_exists":        "Email is already registered",
	"error.phone_invalid":       "Invalid phone number",
	"error.profile_empty":       "Nothing to update",
	"error.user_disabled":       "Account is disabled",
	"error.user_not_found":      "Customer not found",
	"error.user_status_invalid": "Invalid account status",
	"error.user_fetch_failed":   "Failed to load customer",
	"error.user_update_failed":  "Failed to update customer",

	"error.password_old_invalid":     "Current password is incorrect",
	"error.password_min_length":      "Password must be at least %d characters",
	"error.password_require_upper":   "Password must contain an uppercase letter",
	"error.password_require_lower":   "Password must contain a lowercase letter",
	"error.password_require_number":  "Password must contain a digit",
	"error.password_require_special": "Password must contain a special character",

	"error.captcha_required":        "Captcha is required",
	"error.captcha_invalid":         "Captcha is wrong or expired",
	"error.captcha_verify_failed":   "Failed to verify captcha",
	"error.captcha_generate_failed": "Failed to generate captcha",
	"error.captcha_unavailable":     "Captcha is disabled",
	"error.captcha_config_invalid":  "Invalid captcha configuration",

	"error.admin_id_invalid":        "Invalid staff id",
	"error.admin_id_type_invalid":   "Staff id has the wrong type",
	"error.admin_not_found":         "Staff account not found",
	"error.admin_exists":            "Username already exists",
	"error.admin_username_invalid":  "Username must be 3-32 lowercase letters, digits or . _ -",
	"error.admin_role_invalid":      "Role does not exist",
	"error.admin_create_failed":     "Failed to create staff account",
	"error.admin_delete_failed":     "Failed to delete staff account",
	"error.admin_delete_forbidden":  "This account cannot be deleted",
	"error.settings_fetch_failed":   "Failed to load settings",
	"error.settings_save_failed":    "Failed to save settings",
	"error.setting_key_invalid":     "Unknown setting",
	"error.shop_config_invalid":     "Invalid shop configuration",
	"error.shipping_fee_invalid":    "Invalid shipping fee",
	"error.customer_info_invalid":   "Name, phone and address are required",
	"error.payment_method_invalid":  "Invalid payment method",
	"error.payment_method_disabled": "This payment method is not available yet",
	"error.payment_status_invalid":  "Invalid payment status",

	"error.product_id_invalid":         "Invalid dish id",
	"error.product_not_found":          "Dish not found",
	"error.product_not_available":      "This dish is sold out",
	"error.product_price_invalid":      "Invalid dish price",
	"error.product_size_invalid":       "Invalid size",
	"error.product_size_table_invalid": "Invalid size price table",
	"error.product_fetch_failed":       "Failed to load the menu",
	"error.product_create_failed":      "Failed to create dish",
	"error.product_update_failed":      "Failed to update dish",
	"error.product_delete_failed":      "Failed to delete dish",
	"error.category_id_invalid":        "Invalid category id",
	"error.category_not_found":         "Category not found",
	"error.category_in_use":            "Category still has dishes",
	"error.category_fetch_failed":      "Failed to load categories",
	"error.category_create_failed":     "Failed to create category",
	"error.category_update_failed":     "Failed to update category",
	"error.category_delete_failed":     "Failed to delete category",

	"error.cart_empty":           "Your cart is empty",
	"error.cart_session_invalid": "Invalid cart session",
	"error.cart_fetch_failed":    "Failed to load cart",
	"error.cart_update_failed":   "Failed to update cart",
	"error.order_item_invalid":   "Invalid order item",
	"error.order_not_found":      "Order not found",
	"error.order_forbidden":      "You cannot view this order",
	"error.order_status_invalid": "Order status cannot change this way",
	"error.order_conflict":       "The order was just updated, please reload",
	"error.order_create_failed":  "Failed to place order",
	"error.order_fetch_failed":   "Failed to load orders",
	"error.order_update_failed":  "Failed to update order",

	"error.media_not_found":           "Media not found",
	"error.media_source_invalid":      "Invalid media source",
	"error.media_upload_invalid":      "Invalid file",
	"error.media_ids_required":        "Select at least one item",
	"error.media_cloudinary_disabled": "Cloudinary is not configured",
	"error.media_fetch_failed":        "Failed to load media",
	"error.media_save_failed":         "Failed to save media metadata",
	"error.media_update_failed":       "Failed to update media",
	"error.media_delete_failed":       "Failed to delete media",
	"error.media_sync_failed":         "Cloudinary sync failed",
	"error.media_sign_failed":         "Failed to sign upload",

	"notify.order_status":        "Order %s: %s.",
	"notify.order_cancel_reason": "Reason: %s",

	"email.order_status.subject":   "[BNT Kitchen] Order %s updated",
	"email.order_status.total":     "Total: %s VND",
	"email.order_status.guest_tip": "You can look up this order with code %s on the ordering page.",

	"order.status.pending":    "Pending",
	"order.status.processing": "Preparing",
	"order.status.shipping":   "Out for delivery",
	"order.status.completed":  "Completed",
	"order.status.cancelled":  "Cancelled",
}
