package clusterwide

import (
	"context"
	"strings"

	"github.com/asjarre/hardeneks/internal/model"
	"github.com/asjarre/hardeneks/internal/rules"
	"github.com/asjarre/hardeneks/internal/snapshot"
)

const (
	urlEncryptionAtRest = "https://aws.github.io/aws-eks-best-practices/security/docs/data/#encryption-at-rest"
	efsDriver           = "efs.csi.aws.com"
)

var ebsProvisioners = map[string]bool{
	"ebs.csi.aws.com":           true,
	"ebs.csi.eks.amazonaws.com": true,
}

type ebsEncryption struct{ rules.Base }

func newEBSEncryption(rules.Deps) rules.ClusterRule {
	return &ebsEncryption{rules.NewBase(meta(
		pillarSecurity, sectionEncryptionSecrets, "use_encryption_with_ebs",
		"EBS Storage Classes should have encryption parameter.",
		urlEncryptionAtRest,
	), snapshot.StorageClasses)}
}

func (r *ebsEncryption) Check(_ context.Context, s *snapshot.Cluster) (model.Finding, error) {
	var offenders []string
	for _, sc := range s.StorageClasses {
		if !ebsProvisioners[sc.Provisioner] {
			continue
		}
		// A missing parameter set, a missing or empty value and "false" all
		// leave the volume unencrypted.
		if enc := sc.Parameters["encrypted"]; enc == "" || enc == "false" {
			offenders = append(offenders, sc.Name)
		}
	}
	return rules.Result(r.Meta(), "StorageClass", "", offenders), nil
}

type efsEncryption struct{ rules.Base }

func newEFSEncryption(rules.Deps) rules.ClusterRule {
	return &efsEncryption{rules.NewBase(meta(
		pillarSecurity, sectionEncryptionSecrets, "use_encryption_with_efs",
		"EFS Persistent volumes should have encryptInTransit enabled.",
		urlEncryptionAtRest,
	), snapshot.PersistentVolumes)}
}

func (r *efsEncryption) Check(_ context.Context, s *snapshot.Cluster) (model.Finding, error) {
	var offenders []string
	for _, pv := range s.PersistentVolumes {
		csi := pv.Spec.CSI
		if csi == nil || csi.Driver != efsDriver {
			continue
		}
		if csi.VolumeAttributes["encryptInTransit"] == "false" {
			offenders = append(offenders, pv.Name)
		}
	}
	return rules.Result(r.Meta(), "PersistentVolume", "", offenders), nil
}

type efsAccessPoints struct{ rules.Base }

func newEFSAccessPoints(rules.Deps) rules.ClusterRule {
	return &efsAccessPoints{rules.NewBase(meta(
		pillarSecurity, sectionEncryptionSecrets, "use_efs_access_points",
		"EFS Persistent volumes should leverage access points.",
		"https://aws.github.io/aws-eks-best-practices/security/docs/data/#use-efs-access-points-to-simplify-access-to-shared-datasets",
	), snapshot.PersistentVolumes)}
}

// Check flags EFS volumes whose handle is not of the form fs-id::fsap-id.
func (r *efsAccessPoints) Check(_ context.Context, s *snapshot.Cluster) (model.Finding, error) {
	var offenders []string
	for _, pv := range s.PersistentVolumes {
		csi := pv.Spec.CSI
		if csi == nil || csi.Driver != efsDriver {
			continue
		}
		if !strings.Contains(csi.VolumeHandle, "::") {
			offenders = append(offenders, pv.Name)
		}
	}
	return rules.Result(r.Meta(), "PersistentVolume", "", offenders), nil
}
