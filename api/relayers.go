package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/solshield/shieldcore/log"
	"github.com/solshield/shieldcore/relayer"
	"github.com/solshield/shieldcore/storage"
)

func (a *API) relayerView(info relayer.Info) *Relayer {
	return &Relayer{
		Info:   info,
		Health: a.network.Health(info.ID),
		Stats:  a.network.Stats(info.ID),
	}
}

// relayers lists the registry
// GET /relayers
func (a *API) relayers(w http.ResponseWriter, r *http.Request) {
	res := &Relayers{Relayers: []*Relayer{}}
	for _, info := range a.network.Relayers() {
		res.Relayers = append(res.Relayers, a.relayerView(info))
	}
	httpWriteJSON(w, res)
}

// relayer returns one relayer
// GET /relayers/{relayerId}
func (a *API) relayer(w http.ResponseWriter, r *http.Request) {
	info, ok := a.network.Relayer(chi.URLParam(r, RelayerURLParam))
	if !ok {
		ErrRelayerNotFound.Write(w)
		return
	}
	httpWriteJSON(w, a.relayerView(info))
}

// addRelayer registers a relayer and checks its health
// POST /relayers
func (a *API) addRelayer(w http.ResponseWriter, r *http.Request) {
	info := relayer.Info{}
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	id, err := a.network.AddRelayer(info)
	if err != nil {
		ErrInvalidRelayer.WithErr(err).Write(w)
		return
	}
	info.ID = id
	if a.storage != nil {
		if err := a.storage.SetRelayer(info); err != nil {
			ErrGenericInternalServerError.Withf("could not store relayer: %v", err).Write(w)
			return
		}
	}
	a.network.CheckRelayerHealth(r.Context(), info)
	log.Infow("relayer registered", "id", id, "url", info.URL)
	httpWriteJSON(w, &NewRelayerResponse{ID: id})
}

// removeRelayer drops a relayer from the registry
// DELETE /relayers/{relayerId}
func (a *API) removeRelayer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, RelayerURLParam)
	if err := a.network.RemoveRelayer(id); err != nil {
		ErrRelayerNotFound.Write(w)
		return
	}
	if a.storage != nil {
		if err := a.storage.DeleteRelayer(id); err != nil && !errors.Is(err, storage.ErrNotFound) {
			ErrGenericInternalServerError.Withf("could not delete relayer: %v", err).Write(w)
			return
		}
	}
	httpWriteOK(w)
}

// networkStatus returns the aggregated relayer network status
// GET /relayers/status
func (a *API) networkStatus(w http.ResponseWriter, r *http.Request) {
	status := a.network.GetNetworkStatus()
	httpWriteJSON(w, &status)
}

// bestRelayer returns the best relayer for the filters
// GET /relayers/best?token=&amount=&maxFeeBps=&region=
func (a *API) bestRelayer(w http.ResponseWriter, r *http.Request) {
	amount, err := uintParam(r, AmountQueryParam, 64)
	if err != nil {
		ErrMalformedParam.Withf("%s: %v", AmountQueryParam, err).Write(w)
		return
	}
	maxFee, err := uintParam(r, MaxFeeQueryParam, 32)
	if err != nil {
		ErrMalformedParam.Withf("%s: %v", MaxFeeQueryParam, err).Write(w)
		return
	}
	best := a.network.SelectBestRelayer(relayer.SelectionOptions{
		Token:           r.URL.Query().Get(TokenQueryParam),
		Amount:          amount,
		MaxFeeBps:       uint32(maxFee),
		PreferredRegion: r.URL.Query().Get(RegionQueryParam),
	})
	if best == nil {
		ErrNoAvailableRelayer.Write(w)
		return
	}
	httpWriteJSON(w, a.relayerView(*best))
}
