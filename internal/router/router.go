package router

import (
	"time"

	"bibliocra/internal/config"
	"bibliocra/internal/handler"
	"bibliocra/internal/middleware"
	"bibliocra/internal/model"
	"bibliocra/internal/repository"
	"bibliocra/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	libroRepo := repository.NewLibroRepository(db)
	recursoRepo := repository.NewRecursoRepository(db)
	itemRepo := repository.NewItemRepository(db)
	prestamoRepo := repository.NewPrestamoRepository(db)
	reservaRepo := repository.NewReservaRepository(db)
	inventarioRepo := repository.NewInventarioRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, cfg)
	usuarioSvc := service.NewUsuarioService(usuarioRepo, prestamoRepo, reservaRepo, itemRepo)
	catalogoSvc := service.NewCatalogoService(libroRepo)
	recursoSvc := service.NewRecursoService(recursoRepo)
	prestamoSvc := service.NewPrestamoService(prestamoRepo, usuarioRepo, itemRepo)
	reservaSvc := service.NewReservaService(reservaRepo, prestamoRepo, usuarioRepo, itemRepo, cfg.ReservaVigenciaHoras)
	inventarioSvc := service.NewInventarioService(inventarioRepo, libroRepo, recursoRepo, prestamoRepo)
	reporteSvc := service.NewReporteService(prestamoRepo, usuarioRepo, libroRepo, itemRepo, cfg.PDFStoragePath)
	dashboardSvc := service.NewDashboardService(prestamoRepo, reservaRepo, usuarioRepo, inventarioRepo, rdb)
	busquedaSvc := service.NewBusquedaService(usuarioRepo, libroRepo, recursoRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(usuarioSvc)
	librosH := handler.NewLibrosHandler(catalogoSvc)
	recursosH := handler.NewRecursosHandler(recursoSvc)
	prestamosH := handler.NewPrestamosHandler(prestamoSvc)
	reservasH := handler.NewReservasHandler(reservaSvc)
	inventarioH := handler.NewInventarioHandler(inventarioSvc)
	reportesH := handler.NewReportesHandler(reporteSvc)
	dashboardH := handler.NewDashboardHandler(dashboardSvc)
	busquedaH := handler.NewBusquedaHandler(busquedaSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Staff = quienes operan el mesón de préstamos
		staff := middleware.RequireRole(model.RolAdmin, model.RolPersonal)
		soloAdmin := middleware.RequireRole(model.RolAdmin)

		// Perfil propio — cualquier rol autenticado
		v1.GET("/me", usuariosH.Me)

		// Usuarios — gestión de cuentas es de administración
		v1.GET("/usuarios/sancionados", staff, usuariosH.Sancionados)
		v1.DELETE("/usuarios/:id/sancion", staff, usuariosH.QuitarSancion)
		v1.GET("/usuarios/:id", staff, usuariosH.Obtener)
		usuarios := v1.Group("/usuarios", soloAdmin)
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", usuariosH.Eliminar)
		}

		// Libros — lectura para todos, escritura para staff
		v1.GET("/libros", librosH.Listar)
		v1.GET("/libros/:id", librosH.Obtener)
		v1.GET("/libros/:id/ejemplares", librosH.ListarEjemplares)
		libros := v1.Group("/libros", staff)
		{
			libros.POST("", librosH.Crear)
			libros.PUT("/:id", librosH.Actualizar)
			libros.DELETE("/:id", librosH.Eliminar)
			libros.POST("/:id/ejemplares", librosH.AgregarEjemplares)
			libros.DELETE("/:id/ejemplares/:ejemplarId", librosH.EliminarEjemplar)
		}

		// Recursos CRA — lectura para todos, escritura para staff
		v1.GET("/recursos", recursosH.Listar)
		v1.GET("/recursos/:id", recursosH.Obtener)
		v1.GET("/recursos/:id/instancias", recursosH.ListarInstancias)
		recursos := v1.Group("/recursos", staff)
		{
			recursos.POST("", recursosH.Crear)
			recursos.PUT("/:id", recursosH.Actualizar)
			recursos.DELETE("/:id", recursosH.Eliminar)
			recursos.POST("/:id/instancias", recursosH.AgregarInstancias)
			recursos.PATCH("/:id/instancias/:instanciaId/estado", recursosH.CambiarEstadoInstancia)
			recursos.DELETE("/:id/instancias/:instanciaId", recursosH.EliminarInstancia)
		}

		// Préstamos — operación de mesón
		v1.GET("/prestamos/mis", prestamosH.Mis)
		prestamos := v1.Group("/prestamos", staff)
		{
			prestamos.POST("", prestamosH.Crear)
			prestamos.GET("", prestamosH.Listar)
			prestamos.GET("/atrasados", prestamosH.ListarAtrasados)
			prestamos.POST("/:id/devolver", prestamosH.Devolver)
			prestamos.POST("/:id/renovar", prestamosH.Renovar)
		}
		v1.GET("/usuarios/:id/prestamos", staff, prestamosH.PorUsuario)

		// Reservas — crear y cancelar la propia es de cualquier usuario
		v1.POST("/reservas", reservasH.Crear)
		v1.GET("/reservas/mis", reservasH.Mis)
		v1.DELETE("/reservas/mis/:id", reservasH.CancelarPropia)
		reservas := v1.Group("/reservas", staff)
		{
			reservas.GET("", reservasH.ListarActivas)
			reservas.POST("/:id/confirmar", reservasH.Confirmar)
			reservas.DELETE("/:id", reservasH.Cancelar)
		}

		// Inventario
		inventario := v1.Group("/inventario", staff)
		{
			inventario.GET("/atencion", inventarioH.Atencion)
			inventario.DELETE("/:tipo/:id", inventarioH.DarDeBaja)
		}

		// Reportes — profesores ven solo sus propios préstamos
		reportes := v1.Group("/reportes", middleware.RequireRole(model.RolAdmin, model.RolPersonal, model.RolProfesor))
		{
			reportes.GET("", reportesH.Generar)
			reportes.GET("/export.pdf", reportesH.ExportarPDF)
		}

		// Dashboard
		v1.GET("/dashboard", staff, dashboardH.Resumen)

		// Búsqueda y autocompletado del mesón
		busqueda := v1.Group("/busqueda", staff)
		{
			busqueda.GET("/usuarios", busquedaH.Usuarios)
			busqueda.GET("/libros", busquedaH.Libros)
			busqueda.GET("/items", busquedaH.Items)
			busqueda.GET("/items/:tipo/:id/disponible", busquedaH.CopiaDisponible)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
