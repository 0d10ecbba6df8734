package router

import (
	"net/http"
	"time"

	"interview-coach/internal/handlers"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

// Options configures the router.
type Options struct {
	FrontendURL string
	BodyLimitMB int
	// AuthRate and AuthLimit bound sign-up and sign-in attempts per client IP.
	AuthRate  time.Duration
	AuthLimit uint
}

// Handlers bundles the endpoint handlers mounted by Setup.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Interview *handlers.InterviewHandler
	Score     *handlers.ScoreHandler
	Resume    *handlers.ResumeHandler
	Profile   *handlers.ProfileHandler
	Behaviour *handlers.BehaviourHandler
	Health    gin.HandlerFunc
}

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"success": false,
		"error":   "Too many requests. Try again in " + time.Until(info.ResetTime).Round(time.Second).String(),
	})
}

func Setup(log *zap.Logger, opts Options, auth TokenAuthenticator, h Handlers) *gin.Engine {
	// Set up a new Gin router, add recovery middleware and request logging.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogger(log))

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "jwttoken", "username", "password"},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if opts.FrontendURL != "" {
		corsConfig.AllowOrigins = []string{opts.FrontendURL}
	} else {
		corsConfig.AllowOriginFunc = func(string) bool { return true }
	}
	router.Use(cors.New(corsConfig))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	})
	router.Use(func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)
		if err != nil {
			c.Abort()
			return
		}
	})

	if opts.BodyLimitMB > 0 {
		router.Use(BodyLimit(int64(opts.BodyLimitMB) << 20))
	}

	authRate, authLimit := opts.AuthRate, opts.AuthLimit
	if authRate <= 0 {
		authRate = time.Minute
	}
	if authLimit == 0 {
		authLimit = 5
	}
	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  authRate,
		Limit: authLimit,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authRoutes := router.Group("/api/auth")
	{
		authRoutes.POST("/signup", limiter, h.Auth.Signup)
		authRoutes.POST("/signin", limiter, h.Auth.Signin)
	}

	api := router.Group("/api")
	api.Use(AuthRequired(log, auth))
	{
		api.POST("/interview", h.Interview.GenerateQuestion)
		api.POST("/addanswer", h.Interview.AddAnswer)
		api.POST("/home", h.Interview.Reset)

		api.POST("/score", h.Score.CalculateScore)
		api.POST("/checkscore", h.Score.CheckScore)

		api.POST("/resume", h.Resume.CheckResume)

		api.POST("/getimage", h.Profile.GetImage)
		api.POST("/addimage", h.Profile.AddImage)
		api.POST("/transcribe", h.Profile.Transcribe)

		api.GET("/behaviour/stream", h.Behaviour.Stream)
		api.POST("/behaviour/metrics", h.Behaviour.PostMetrics)
		api.POST("/final-analysis", h.Behaviour.FinalAnalysis)
		api.GET("/final-analysis/latest", h.Behaviour.LatestAnalysis)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Not found"})
	})

	return router
}
