package namespaced

import corev1 "k8s.io/api/core/v1"

type podView struct{ *corev1.Pod }

// anyContainer reports whether fn holds for an app or init container.
func (p podView) anyContainer(fn func(*corev1.Container) bool) bool {
	for i := range p.Spec.InitContainers {
		if fn(&p.Spec.InitContainers[i]) {
			return true
		}
	}
	return p.anyAppContainer(fn)
}

// anyAppContainer is anyContainer restricted to long-running containers.
func (p podView) anyAppContainer(fn func(*corev1.Container) bool) bool {
	for i := range p.Spec.Containers {
		if fn(&p.Spec.Containers[i]) {
			return true
		}
	}
	return false
}

// hostPathVolumes returns the hostPath volumes of the pod by volume name.
func (p podView) hostPathVolumes() map[string]*corev1.HostPathVolumeSource {
	out := map[string]*corev1.HostPathVolumeSource{}
	for _, v := range p.Spec.Volumes {
		if v.HostPath != nil {
			out[v.Name] = v.HostPath
		}
	}
	return out
}

// runsAsRoot reports whether c may run as UID 0 once pod-level defaults apply.
func (p podView) runsAsRoot(c *corev1.Container) bool {
	var (
		user    *int64
		nonRoot *bool
	)
	if psc := p.Spec.SecurityContext; psc != nil {
		user, nonRoot = psc.RunAsUser, psc.RunAsNonRoot
	}
	if sc := c.SecurityContext; sc != nil {
		if sc.RunAsUser != nil {
			user = sc.RunAsUser
		}
		if sc.RunAsNonRoot != nil {
			nonRoot = sc.RunAsNonRoot
		}
	}
	if user != nil {
		return *user == 0
	}
	return nonRoot == nil || !*nonRoot
}
