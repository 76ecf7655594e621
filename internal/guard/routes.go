package guard

// Page route names.
const (
	RouteMain          = "main"
	RouteLogin         = "login"
	RouteOAuthCallback = "oauth-callback"
	RouteKakaoCallback = "kakao-callback"
	RouteUpload        = "upload"
	RouteVideos        = "videos"
	RoutePreview       = "preview"
	RouteVideoDetail   = "video-detail"
	RouteMyVideos      = "my-videos"
	RouteProfile       = "profile"
)

// PageRoutes is the client route table served by the single-page shell.
func PageRoutes() []Route {
	return []Route{
		{Name: RouteMain, Path: "/", RequiresAuth: true},
		{Name: RouteLogin, Path: "/login"},
		{Name: RouteOAuthCallback, Path: "/oauth/callback/{provider}"},
		// Redirect URI registered with Kakao by earlier deployments.
		{Name: RouteKakaoCallback, Path: "/login/oauth2/code/kakao"},
		{Name: RouteUpload, Path: "/upload", RequiresAuth: true},
		{Name: RouteVideos, Path: "/videos"},
		{Name: RoutePreview, Path: "/preview", RequiresAuth: true},
		{Name: RouteVideoDetail, Path: "/video/detail"},
		{Name: RouteMyVideos, Path: "/my-videos", RequiresAuth: true},
		{Name: RouteProfile, Path: "/profile", RequiresAuth: true},
	}
}
