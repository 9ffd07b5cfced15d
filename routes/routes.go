package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/CatCodeArbelin/dacarbelin/handlers"
	"github.com/CatCodeArbelin/dacarbelin/middleware"
)

// SetupRoutes собирает публичные и административные маршруты турнира.
func SetupRoutes(
	router *chi.Mux,
	auth *middleware.AdminAuth,
	tournamentHandler *handlers.TournamentHandler,
	adminHandler *handlers.AdminHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Публичная часть
	router.Post("/register", tournamentHandler.Register)
	router.Get("/registration", tournamentHandler.RegistrationStatus)
	router.Get("/groups", tournamentHandler.ListGroups)
	router.Get("/groups/{groupID}/table", tournamentHandler.GroupTable)
	router.Get("/groups/{groupID}/tied", tournamentHandler.TiedGroups)
	router.Get("/playoff/stages", tournamentHandler.PlayoffStages)
	router.Get("/archive", tournamentHandler.Archive)

	// Административная часть
	router.Post("/admin/login", adminHandler.Login)
	router.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireAdmin)

		r.Post("/logout", adminHandler.Logout)
		r.Post("/registration", adminHandler.ToggleRegistration)
		r.Post("/invite", adminHandler.InviteUser)
		r.Post("/users/{userID}/direct-invite", adminHandler.SetDirectInvite)
		r.Post("/users/{userID}/basket", adminHandler.UpdateUserBasket)

		r.Post("/draw/auto", adminHandler.CreateAutoDraw)
		r.Post("/draw/manual", adminHandler.CreateManualDraw)
		r.Post("/groups", adminHandler.CreateManualGroup)
		r.Post("/groups/{groupID}/members", adminHandler.AddGroupMember)
		r.Delete("/groups/{groupID}/members/{userID}", adminHandler.RemoveGroupMember)
		r.Post("/groups/members/move", adminHandler.MoveGroupMember)
		r.Post("/groups/members/swap", adminHandler.SwapGroupMembers)
		r.Post("/groups/{groupID}/password", adminHandler.UpdateGroupPassword)
		r.Post("/groups/{groupID}/score", adminHandler.RecordGroupGame)
		r.Post("/groups/{groupID}/tie-break", adminHandler.RecordManualTieBreak)
		r.Post("/groups/{groupID}/coin-toss", adminHandler.RecordCoinTossTieBreak)

		r.Post("/playoff/generate", adminHandler.GeneratePlayoff)
		r.Post("/playoff/stages/{stageID}/score", adminHandler.RecordPlayoffGame)
		r.Post("/playoff/stages/{stageID}/promote", adminHandler.PromoteStage)
		r.Post("/playoff/stages/{stageID}/start", adminHandler.StartStage)
		r.Post("/playoff/stages/{stageID}/replace", adminHandler.ReplaceStagePlayer)
		r.Post("/playoff/stages/{stageID}/adjust-points", adminHandler.AdjustStagePoints)
		r.Post("/playoff/stages/{stageID}/override-winner", adminHandler.OverrideMatchWinner)
		r.Post("/playoff/move", adminHandler.MoveUserToStage)

		r.Post("/archive", adminHandler.ArchiveTournament)
		r.Post("/archive/{entryID}/publish", adminHandler.PublishArchiveEntry)
	})
}
